package lsof

import "sort"

// Kind declares how raw values of a field are coerced.
type Kind uint8

const (
	KindText Kind = iota
	KindInteger
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInteger:
		return "integer"
	default:
		return "unknown"
	}
}

// FieldType is one recognized field code.
type FieldType struct {
	Code string
	Name string
	Kind Kind
}

// fieldTypes is populated once at init and never written again.
var fieldTypes = map[string]FieldType{}

func init() {
	for _, ft := range []FieldType{
		{"a", "access_mode", KindText},
		{"c", "command", KindText},
		{"C", "structure_share_count", KindInteger},
		{"d", "device_character_code", KindText},
		{"D", "device_number", KindText},
		{"f", "descriptor", KindText},
		{"F", "structure_address", KindText},
		{"G", "flags", KindText},
		{"g", "gid", KindInteger},
		{"i", "inode_number", KindInteger},
		{"K", "task_id", KindInteger},
		{"k", "link_count", KindInteger},
		{"l", "lock_status", KindText},
		{"L", "login_name", KindText},
		{"m", "repeated_output_marker", KindText},
		{"M", "task_command", KindText},
		{"n", "file_name", KindText},
		{"N", "node_identifier", KindText},
		{"o", "offset", KindText},
		{"p", "pid", KindInteger},
		{"P", "protocol_name", KindText},
		{"r", "raw_device_number", KindText},
		{"R", "ppid", KindInteger},
		{"s", "size", KindInteger},
		{"S", "stream", KindText},
		{"t", "type", KindText},
		{"u", "uid", KindInteger},
		{"z", "zone_name", KindText},
		{"Z", "selinux_security_context", KindText},
		{"0", "use_nul_sep", KindText},
		{"1", "dialect_specific_1", KindText},
		{"2", "dialect_specific_2", KindText},
		{"3", "dialect_specific_3", KindText},
		{"4", "dialect_specific_4", KindText},
		{"5", "dialect_specific_5", KindText},
		{"6", "dialect_specific_6", KindText},
		{"7", "dialect_specific_7", KindText},
		{"8", "dialect_specific_8", KindText},
		{"9", "dialect_specific_9", KindText},

		// TCP/TPI socket details.
		{"TQR", "tcp_read_queue_size", KindInteger},
		{"TQS", "tcp_send_queue_size", KindInteger},
		{"TSO", "tcp_socket_options", KindText},
		{"TSS", "tcp_socket_states", KindText},
		{"TST", "tcp_connection_state", KindText},
		{"TTF", "tcp_flags", KindText},
		{"TWR", "tcp_window_read_size", KindInteger},
		{"TWS", "tcp_window_write_size", KindInteger},
	} {
		if _, dup := fieldTypes[ft.Code]; dup {
			panic("lsof: duplicate field code " + ft.Code)
		}
		fieldTypes[ft.Code] = ft
	}
}

// Lookup returns the field registered for code.
func Lookup(code string) (FieldType, bool) {
	ft, ok := fieldTypes[code]
	return ft, ok
}

// Fields returns every registered field sorted by code.
func Fields() []FieldType {
	out := make([]FieldType, 0, len(fieldTypes))
	for _, ft := range fieldTypes {
		out = append(out, ft)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
