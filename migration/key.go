package migration

import (
	"strconv"
	"strings"
)

// Key identifies a unit across every app sharing a database.
type Key struct {
	App  string
	TS   int64
	Name string
}

// String returns "app:ts_name".
func (k Key) String() string {
	return k.App + ":" + strconv.FormatInt(k.TS, 10) + "_" + k.Name
}

// IsZero reports whether k is the zero Key.
func (k Key) IsZero() bool {
	return k == Key{}
}

// Less orders keys by ts, then name, then app.
func (k Key) Less(o Key) bool {
	if k.TS != o.TS {
		return k.TS < o.TS
	}
	if k.Name != o.Name {
		return k.Name < o.Name
	}
	return k.App < o.App
}

// ParseKey parses "app:ts_name". A bare "ts_name" takes defaultApp.
func ParseKey(s, defaultApp string) (Key, error) {
	in := strings.TrimSpace(s)
	app, rest, qualified := strings.Cut(in, ":")
	if !qualified {
		app, rest = defaultApp, in
	}
	if app == "" {
		if qualified {
			return Key{}, &KeyError{Input: s, Reason: "empty app"}
		}
		return Key{}, &KeyError{Input: s, Reason: "bare key needs a default app"}
	}
	if strings.Contains(rest, ":") {
		return Key{}, &KeyError{Input: s, Reason: "more than one ':'"}
	}

	tsPart, name, _ := strings.Cut(rest, "_")
	if tsPart == "" {
		return Key{}, &KeyError{Input: s, Reason: "missing timestamp"}
	}
	ts, err := strconv.ParseInt(tsPart, 10, 64)
	if err != nil || ts < 0 {
		return Key{}, &KeyError{Input: s, Reason: "timestamp must be a non-negative integer"}
	}
	return Key{App: app, TS: ts, Name: name}, nil
}
