package srvlog

import "github.com/sirupsen/logrus"

// Fields is a small immutable-update map of contextual log attributes,
// adapted from nabbar-golib/logger's Fields: Add/Merge return a new
// map rather than mutating the receiver, so a handler can build up
// request-scoped fields (session_id, job_id) without aliasing a
// caller's map.
type Fields map[string]interface{}

// NewFields returns an empty Fields map.
func NewFields() Fields {
	return make(Fields)
}

func (f Fields) clone() Fields {
	res := make(Fields, len(f))
	for k, v := range f {
		res[k] = v
	}
	return res
}

// Add returns a copy of f with key set to val.
func (f Fields) Add(key string, val interface{}) Fields {
	res := f.clone()
	res[key] = val
	return res
}

// Merge returns a copy of f with every key/value from other applied on
// top.
func (f Fields) Merge(other Fields) Fields {
	if len(other) == 0 {
		return f
	}
	res := f.clone()
	for k, v := range other {
		res[k] = v
	}
	return res
}

// Logrus converts f into a logrus.Fields map for WithFields.
func (f Fields) Logrus() logrus.Fields {
	return logrus.Fields(f.clone())
}
