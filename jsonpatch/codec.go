package jsonpatch

import (
	"github.com/corvid-labs/jsontree/jsonerr"
	"github.com/corvid-labs/jsontree/jsonval"
)

// ParsePatch decodes a JSON Patch document (a jsonval array of operation
// objects, per RFC 6902 section 3) into a Patch.
func ParsePatch(doc *jsonval.Value) (Patch, error) {
	if doc.Kind != jsonval.KindArray {
		return nil, jsonerr.New(jsonerr.SyntaxError, -1, "a JSON Patch document must be an array")
	}
	patch := make(Patch, 0, len(doc.Elems))
	for i, entry := range doc.Elems {
		op, err := parseOpObject(entry)
		if err != nil {
			return nil, jsonerr.Newf(jsonerr.SyntaxError, -1, "operation %d: %v", i, err)
		}
		patch = append(patch, op)
	}
	return patch, nil
}

func parseOpObject(entry *jsonval.Value) (Op, error) {
	if entry.Kind != jsonval.KindObject {
		return Op{}, jsonerr.New(jsonerr.SyntaxError, -1, "operation must be an object")
	}
	kindVal, ok := entry.Get("op")
	if !ok || kindVal.Kind != jsonval.KindString {
		return Op{}, jsonerr.New(jsonerr.SyntaxError, -1, "operation is missing a string \"op\" member")
	}
	pathVal, ok := entry.Get("path")
	if !ok || pathVal.Kind != jsonval.KindString {
		return Op{}, jsonerr.New(jsonerr.SyntaxError, -1, "operation is missing a string \"path\" member")
	}

	op := Op{Kind: OpKind(kindVal.Str), Path: pathVal.Str}
	switch op.Kind {
	case OpMove, OpCopy:
		fromVal, ok := entry.Get("from")
		if !ok || fromVal.Kind != jsonval.KindString {
			return Op{}, jsonerr.Newf(jsonerr.MissingOperand, -1, "%q operation is missing a string \"from\" member", op.Kind)
		}
		op.From = fromVal.Str
	case OpAdd, OpReplace, OpTest:
		val, ok := entry.Get("value")
		if !ok {
			return Op{}, jsonerr.Newf(jsonerr.MissingOperand, -1, "%q operation is missing a \"value\" member", op.Kind)
		}
		op.Value = val
	case OpRemove:
	default:
		return Op{}, jsonerr.Newf(jsonerr.InvalidOp, -1, "unrecognized operation %q", kindVal.Str)
	}
	return op, nil
}

// MarshalPatch renders patch as a jsonval array of operation objects,
// suitable for jsonwrite.
func MarshalPatch(patch Patch) *jsonval.Value {
	arr := jsonval.NewArray()
	for _, op := range patch {
		arr.AppendChild(marshalOp(op))
	}
	return arr
}

func marshalOp(op Op) *jsonval.Value {
	entry := jsonval.NewObject()
	kindMember := jsonval.NewString(string(op.Kind))
	kindMember.Key = "op"
	entry.AppendChild(kindMember)

	pathMember := jsonval.NewString(op.Path)
	pathMember.Key = "path"
	entry.AppendChild(pathMember)

	switch op.Kind {
	case OpMove, OpCopy:
		fromMember := jsonval.NewString(op.From)
		fromMember.Key = "from"
		entry.AppendChild(fromMember)
	case OpAdd, OpReplace, OpTest:
		if op.Value != nil {
			valMember := op.Value.Reference()
			valMember.Key = "value"
			entry.AppendChild(valMember)
		}
	}
	return entry
}
