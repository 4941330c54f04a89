// Package evidence runs a fixed set of named conformance checks and
// serializes the results as a small, self-describing JSON artifact.
//
// This is a from-scratch, heavily trimmed replacement for the teacher's
// distributed replay-node evidence system: no node/distro/session fields,
// no replay index, just a schema version, a flat property list, and a
// content hash of the corpus the properties were checked against. The
// artifact is produced through this module's own jsonwrite package, so a
// conformance run is itself a demonstration of the serializer under test.
package evidence

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/corvid-labs/jsontree/jsonval"
	"github.com/corvid-labs/jsontree/jsonwrite"
)

// SchemaVersion identifies the shape of the bundle produced by this package.
const SchemaVersion = 1

// PropertyCheck is one named, self-contained conformance property.
type PropertyCheck struct {
	Name string
	Run  func() error
}

// PropertyResult records the outcome of running one PropertyCheck.
type PropertyResult struct {
	Name   string
	Passed bool
	Detail string
}

// Bundle is the serializable result of running a set of PropertyChecks.
type Bundle struct {
	SchemaVersion int
	CorpusHash    string
	Results       []PropertyResult
}

// Run executes every check in checks and returns the resulting Bundle.
// corpus is hashed into CorpusHash so a bundle can be tied back to the
// fixture bytes it was produced from, without embedding the corpus itself.
func Run(corpus []byte, checks []PropertyCheck) Bundle {
	sum := sha256.Sum256(corpus)
	b := Bundle{
		SchemaVersion: SchemaVersion,
		CorpusHash:    hex.EncodeToString(sum[:]),
		Results:       make([]PropertyResult, 0, len(checks)),
	}
	for _, c := range checks {
		res := PropertyResult{Name: c.Name, Passed: true}
		if err := c.Run(); err != nil {
			res.Passed = false
			res.Detail = err.Error()
		}
		b.Results = append(b.Results, res)
	}
	return b
}

// AllPassed reports whether every result in the bundle passed.
func (b Bundle) AllPassed() bool {
	for _, r := range b.Results {
		if !r.Passed {
			return false
		}
	}
	return true
}

// Marshal serializes b into this module's own value tree, ready for
// jsonwrite.Write.
func (b Bundle) Marshal() *jsonval.Value {
	root := jsonval.NewObject()
	root.AppendChild(keyed("schemaVersion", jsonval.NewNumber(float64(b.SchemaVersion))))
	root.AppendChild(keyed("corpusHash", jsonval.NewString(b.CorpusHash)))

	results := jsonval.NewArray()
	for _, r := range b.Results {
		entry := jsonval.NewObject()
		entry.AppendChild(keyed("name", jsonval.NewString(r.Name)))
		entry.AppendChild(keyed("passed", jsonval.NewBool(r.Passed)))
		if r.Detail != "" {
			entry.AppendChild(keyed("detail", jsonval.NewString(r.Detail)))
		}
		results.AppendChild(entry)
	}
	root.AppendChild(keyed("results", results))
	return root
}

// WriteJSON serializes b as compact JSON text using this module's own
// serializer.
func (b Bundle) WriteJSON() ([]byte, error) {
	return jsonwrite.Write(b.Marshal(), jsonwrite.Compact)
}

func keyed(key string, v *jsonval.Value) *jsonval.Value {
	v.Key = key
	return v
}
