package proto

type Proto uint8

const (
	Unknown Proto = 0
	HTTP11  Proto = 1 << iota
	HTTP12
)

// String returns the protocol token as it appears on the wire, e.g. HTTP/1.1
func (p Proto) String() string {
	lut := [...]string{HTTP11: "HTTP/1.1", HTTP12: "HTTP/1.2"}
	if int(p) >= len(lut) {
		return ""
	}

	return lut[p]
}

const (
	// TokenLength is the only accepted length of a version token
	TokenLength        = len("HTTP/x.x")
	majorVersionOffset = len("HTTP/x") - 1
	minorVersionOffset = len("HTTP/x.x") - 1
	httpScheme         = "HTTP/"
)

var majorMinorVersionLUT = [10][10]Proto{
	1: {1: HTTP11, 2: HTTP12},
}

// Wellformed reports whether the token has the HTTP/x.y shape, regardless of whether
// the version itself is supported
func Wellformed(raw string) bool {
	return len(raw) == TokenLength && raw[:majorVersionOffset] == httpScheme
}

// FromString returns Unknown for both malformed tokens and unsupported versions. Use
// Wellformed in order to tell them apart
func FromString(raw string) Proto {
	if !Wellformed(raw) || raw[majorVersionOffset+1] != '.' {
		return Unknown
	}

	return Parse(raw[majorVersionOffset]-'0', raw[minorVersionOffset]-'0')
}

func Parse(major, minor uint8) Proto {
	if major > 9 || minor > 9 {
		return Unknown
	}

	return majorMinorVersionLUT[major][minor]
}
