package hpack

// staticTable is RFC 7541 Appendix A's 61-entry static table, 1-indexed in
// the wire format (index 1..61); staticTable[0] here is wire index 1.
var staticTable = [61]HeaderField{
	{Name: ":authority"},
	{Name: ":method", Value: "GET"},
	{Name: ":method", Value: "POST"},
	{Name: ":path", Value: "/"},
	{Name: ":path", Value: "/index.html"},
	{Name: ":scheme", Value: "http"},
	{Name: ":scheme", Value: "https"},
	{Name: ":status", Value: "200"},
	{Name: ":status", Value: "204"},
	{Name: ":status", Value: "206"},
	{Name: ":status", Value: "304"},
	{Name: ":status", Value: "400"},
	{Name: ":status", Value: "404"},
	{Name: ":status", Value: "500"},
	{Name: "accept-charset"},
	{Name: "accept-encoding", Value: "gzip, deflate"},
	{Name: "accept-language"},
	{Name: "accept-ranges"},
	{Name: "accept"},
	{Name: "access-control-allow-origin"},
	{Name: "age"},
	{Name: "allow"},
	{Name: "authorization"},
	{Name: "cache-control"},
	{Name: "content-disposition"},
	{Name: "content-encoding"},
	{Name: "content-language"},
	{Name: "content-length"},
	{Name: "content-location"},
	{Name: "content-range"},
	{Name: "content-type"},
	{Name: "cookie"},
	{Name: "date"},
	{Name: "etag"},
	{Name: "expect"},
	{Name: "expires"},
	{Name: "from"},
	{Name: "host"},
	{Name: "if-match"},
	{Name: "if-modified-since"},
	{Name: "if-none-match"},
	{Name: "if-range"},
	{Name: "if-unmodified-since"},
	{Name: "last-modified"},
	{Name: "link"},
	{Name: "location"},
	{Name: "max-forwards"},
	{Name: "proxy-authenticate"},
	{Name: "proxy-authorization"},
	{Name: "range"},
	{Name: "referer"},
	{Name: "refresh"},
	{Name: "retry-after"},
	{Name: "server"},
	{Name: "set-cookie"},
	{Name: "strict-transport-security"},
	{Name: "transfer-encoding"},
	{Name: "user-agent"},
	{Name: "vary"},
	{Name: "via"},
	{Name: "www-authenticate"},
}

// staticTableByName maps a lowercase name to the smallest 1-based static
// index carrying that name (used to prefer a name-only match when no
// value matches), and a secondary map for exact name+value matches.
var staticTableByNameValue = make(map[HeaderField]int, len(staticTable))
var staticTableByName = make(map[string]int, len(staticTable))

func init() {
	for i, f := range staticTable {
		idx := i + 1
		if _, ok := staticTableByName[f.Name]; !ok {
			staticTableByName[f.Name] = idx
		}
		staticTableByNameValue[f] = idx
	}
}

const staticTableSize = len(staticTable)

// dynamicTable is a FIFO eviction ring: entries are added at the front
// (wire index len..1, newest first) and evicted from the back once the
// total size exceeds the negotiated maximum.
type dynamicTable struct {
	// ents holds entries oldest-first; the newest entry is ents[len-1].
	ents []HeaderField
	size uint32 // current total size per RFC 7541 §4.1
	max  uint32 // SETTINGS_HEADER_TABLE_SIZE-derived cap
}

func (t *dynamicTable) setMaxSize(max uint32) {
	t.max = max
	t.evictTo(max)
}

func (t *dynamicTable) evictTo(target uint32) {
	for t.size > target && len(t.ents) > 0 {
		oldest := t.ents[0]
		t.ents = t.ents[1:]
		t.size -= oldest.Size()
	}
}

// add inserts f as the newest entry, evicting old entries as needed. If f
// itself is larger than the table's max size, the table ends up empty
// (RFC 7541 §4.4).
func (t *dynamicTable) add(f HeaderField) {
	t.ents = append(t.ents, f)
	t.size += f.Size()
	t.evictTo(t.max)
}

// len returns the number of entries currently in the dynamic table.
func (t *dynamicTable) len() int { return len(t.ents) }

// at returns the dynamic-table entry for 1-based dynamic index i (1 is the
// newest entry), per RFC 7541 §2.3.3.
func (t *dynamicTable) at(i int) (HeaderField, bool) {
	if i < 1 || i > len(t.ents) {
		return HeaderField{}, false
	}
	return t.ents[len(t.ents)-i], true
}
