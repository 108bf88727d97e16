package cache

import "time"

// Options is one cached query result and the key material that addresses it.
// Time and Duration are milliseconds; Time is the Unix epoch of creation.
type Options struct {
	Identifier string      `json:"identifier,omitempty" msgpack:"identifier,omitempty"`
	Query      string      `json:"query,omitempty" msgpack:"query,omitempty"`
	Time       int64       `json:"time" msgpack:"time"`
	Duration   int64       `json:"duration" msgpack:"duration"`
	Result     interface{} `json:"result" msgpack:"result"`
}

// HasKey reports whether the options carry an identifier or query to key on
func (o *Options) HasKey() bool {
	return o.Identifier != "" || o.Query != ""
}

// TTL returns Duration as a time.Duration
func (o *Options) TTL() time.Duration {
	return time.Duration(o.Duration) * time.Millisecond
}

// ExpiresAt returns the instant after which the entry is stale
func (o *Options) ExpiresAt() time.Time {
	return time.UnixMilli(o.Time + o.Duration)
}

func millis(d time.Duration) int64 {
	return d.Milliseconds()
}
