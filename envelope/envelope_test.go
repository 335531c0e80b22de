package envelope

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"reflect"
	"testing"
)

const (
	vBoysenberry int32 = 2
	vElderberry  int32 = 5
	vFig         int32 = 6
)

type connOverride struct {
	ConnectionID int32
	Override     bool
	Value        int32
	Dirty        bool
	SubID        *int32  // v5
	Label        *string // v6
	Tags         []string
}

func writeBase(w *Writer, r *connOverride) {
	w.WriteInt32(r.ConnectionID)
	w.WriteBool(r.Override)
	w.WriteInt32(r.Value)
	w.WriteBool(r.Dirty)
}

func readBase(rd *Reader, r *connOverride) error {
	r.ConnectionID = rd.ReadInt32()
	r.Override = rd.ReadBool()
	r.Value = rd.ReadInt32()
	r.Dirty = rd.ReadBool()
	return rd.Err()
}

func writeSub(w *Writer, r *connOverride) {
	if w.Present(r.SubID != nil) {
		w.WriteInt32(*r.SubID)
	}
}

func readSub(rd *Reader, r *connOverride) error {
	if rd.Present() {
		v := rd.ReadInt32()
		r.SubID = &v
	}
	return rd.Err()
}

// knows v2 and v5 only
var oldSchema = MustSchema(
	Group[connOverride]{Since: vBoysenberry, Write: writeBase, Read: readBase},
	Group[connOverride]{Since: vElderberry, Write: writeSub, Read: readSub},
)

var newSchema = MustSchema(
	Group[connOverride]{Since: vBoysenberry, Write: writeBase, Read: readBase},
	Group[connOverride]{Since: vElderberry, Write: writeSub, Read: readSub},
	Group[connOverride]{
		Since: vFig,
		Write: func(w *Writer, r *connOverride) {
			w.WriteOptionalString(r.Label)
			w.WriteStrings(r.Tags)
		},
		Read: func(rd *Reader, r *connOverride) error {
			r.Label = rd.ReadOptionalString()
			r.Tags = rd.ReadStrings()
			return rd.Err()
		},
	},
)

func i32(v int32) *int32   { return &v }
func str(s string) *string { return &s }

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		rec     connOverride
		version int32
	}{
		{"base_only", connOverride{ConnectionID: 7, Override: true, Value: 1, Dirty: true}, vBoysenberry},
		{"sub_absent", connOverride{ConnectionID: 7, Value: -3}, vElderberry},
		{"sub_present", connOverride{ConnectionID: 9, Value: 2, SubID: i32(4)}, vElderberry},
		{"all_fields", connOverride{ConnectionID: 1, SubID: i32(0), Label: str(""), Tags: []string{"a", "", "ü"}}, vFig},
		{"label_absent", connOverride{ConnectionID: 1}, vFig},
		{"tags_empty", connOverride{ConnectionID: 1, Tags: []string{}}, vFig},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := newSchema.Encode(&tc.rec, tc.version)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, err := newSchema.Decode(b, tc.version)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !reflect.DeepEqual(got, tc.rec) {
				t.Fatalf("round trip mismatch:\n got=%+v\nwant=%+v", got, tc.rec)
			}
		})
	}
}

type blobRecord struct {
	Tags []string
	Blob []byte
}

var blobSchema = MustSchema(Group[blobRecord]{
	Since: 1,
	Write: func(w *Writer, r *blobRecord) {
		w.WriteStrings(r.Tags)
		w.WriteBytes(r.Blob)
	},
	Read: func(rd *Reader, r *blobRecord) error {
		r.Tags = rd.ReadStrings()
		r.Blob = rd.ReadBytes()
		return rd.Err()
	},
})

func TestNilAndEmptySlicesSurvive(t *testing.T) {
	cases := map[string]blobRecord{
		"nil":   {},
		"empty": {Tags: []string{}, Blob: []byte{}},
		"mixed": {Tags: []string{}, Blob: []byte{0}},
		"full":  {Tags: []string{"a"}, Blob: []byte("xyz")},
	}
	for name, rec := range cases {
		t.Run(name, func(t *testing.T) {
			b, err := blobSchema.Encode(&rec, 1)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, err := blobSchema.Decode(b, 1)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !reflect.DeepEqual(got, rec) {
				t.Fatalf("round trip mismatch:\n got=%#v\nwant=%#v", got, rec)
			}
		})
	}
}

func TestNegativeListLengthBelowNilIsMalformed(t *testing.T) {
	w := NewWriter(0)
	f := w.BeginRecord(1)
	w.WriteInt32(-2)
	w.EndRecord(f)
	if _, err := blobSchema.Decode(w.Bytes(), 1); !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("expected ErrMalformedRecord, got %v", err)
	}
}

func TestHeaderAndLength(t *testing.T) {
	rec := connOverride{ConnectionID: 1}
	b, err := oldSchema.Encode(&rec, vElderberry)
	if err != nil {
		t.Fatal(err)
	}
	// v2 group: 4+1+4+1, v5 group: presence flag only
	const payload = 10 + 1
	if len(b) != HeaderSize+payload {
		t.Fatalf("len=%d want %d", len(b), HeaderSize+payload)
	}
	if v := int32(binary.LittleEndian.Uint32(b[0:4])); v != vElderberry {
		t.Fatalf("version=%d want %d", v, vElderberry)
	}
	if n := int32(binary.LittleEndian.Uint32(b[4:8])); n != payload {
		t.Fatalf("length=%d want %d", n, payload)
	}
}

func TestEncodeOmitsNewerGroups(t *testing.T) {
	rec := connOverride{ConnectionID: 3, SubID: i32(8), Label: str("x")}
	b, err := newSchema.Encode(&rec, vBoysenberry)
	if err != nil {
		t.Fatal(err)
	}
	got, err := newSchema.Decode(b, vFig)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.SubID != nil || got.Label != nil {
		t.Fatalf("fields newer than encoded version leaked: %+v", got)
	}
	if got.ConnectionID != 3 {
		t.Fatalf("ConnectionID=%d", got.ConnectionID)
	}
}

func TestForwardSkipLeavesCursorAtNextRecord(t *testing.T) {
	first := connOverride{ConnectionID: 1, SubID: i32(11), Label: str("newer"), Tags: []string{"t1", "t2"}}
	second := connOverride{ConnectionID: 2, Value: 42, SubID: i32(22)}

	w := NewWriter(0)
	if err := newSchema.EncodeTo(w, &first, vFig); err != nil {
		t.Fatal(err)
	}
	if err := newSchema.EncodeTo(w, &second, vFig); err != nil {
		t.Fatal(err)
	}

	rd := NewReader(w.Bytes())
	got1, err := oldSchema.DecodeFrom(rd, vElderberry)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	want1 := connOverride{ConnectionID: 1, SubID: i32(11)}
	if !reflect.DeepEqual(got1, want1) {
		t.Fatalf("first: got=%+v want=%+v", got1, want1)
	}
	got2, err := oldSchema.DecodeFrom(rd, vElderberry)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	want2 := connOverride{ConnectionID: 2, Value: 42, SubID: i32(22)}
	if !reflect.DeepEqual(got2, want2) {
		t.Fatalf("second: got=%+v want=%+v", got2, want2)
	}
	if rd.Remaining() != 0 {
		t.Fatalf("expected stream fully consumed, %d left", rd.Remaining())
	}
}

func TestReaderMaxVersionGatesGroups(t *testing.T) {
	rec := connOverride{ConnectionID: 5, SubID: i32(1), Label: str("l")}
	b, err := newSchema.Encode(&rec, vFig)
	if err != nil {
		t.Fatal(err)
	}
	got, err := newSchema.Decode(b, vBoysenberry)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.SubID != nil || got.Label != nil || got.ConnectionID != 5 {
		t.Fatalf("unexpected %+v", got)
	}
}

func TestDecodeIgnoresTrailingBytes(t *testing.T) {
	rec := connOverride{ConnectionID: 1}
	b, _ := oldSchema.Encode(&rec, vElderberry)
	b = append(b, 0xDE, 0xAD, 0xBE)
	if _, err := oldSchema.Decode(b, vElderberry); err != nil {
		t.Fatalf("trailing bytes after record must be ignored: %v", err)
	}
}

func TestTruncationSafety(t *testing.T) {
	rec := connOverride{ConnectionID: 1, SubID: i32(2), Label: str("abc"), Tags: []string{"x"}}
	full, err := newSchema.Encode(&rec, vFig)
	if err != nil {
		t.Fatal(err)
	}

	// every strict prefix must fail cleanly
	for n := 0; n < len(full); n++ {
		if _, err := newSchema.Decode(full[:n], vFig); !errors.Is(err, ErrMalformedRecord) {
			t.Fatalf("prefix %d: expected ErrMalformedRecord, got %v", n, err)
		}
	}

	// declared length beyond buffer
	bad := append([]byte(nil), full...)
	binary.LittleEndian.PutUint32(bad[4:8], uint32(len(full)))
	_, err = newSchema.Decode(bad, vFig)
	var me *MalformedError
	if !errors.As(err, &me) {
		t.Fatalf("expected *MalformedError, got %T %v", err, err)
	}
	if me.Need != len(full) {
		t.Fatalf("Need=%d want %d", me.Need, len(full))
	}

	// negative length
	neg := append([]byte(nil), full...)
	binary.LittleEndian.PutUint32(neg[4:8], 0xFFFFFFFF)
	if _, err := newSchema.Decode(neg, vFig); !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("negative length: expected ErrMalformedRecord, got %v", err)
	}
}

func TestHugeListCountRejected(t *testing.T) {
	w := NewWriter(0)
	f := w.BeginRecord(vFig)
	writeBase(w, &connOverride{})
	writeSub(w, &connOverride{})
	w.WriteOptionalString(nil)
	w.WriteInt32(1 << 30) // list count with no elements
	w.EndRecord(f)
	if _, err := newSchema.Decode(w.Bytes(), vFig); !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("expected ErrMalformedRecord, got %v", err)
	}
}

func TestOverReadIsFatalOnlyForThatRecord(t *testing.T) {
	// a buggy group that reads more than it wrote
	greedy := MustSchema(
		Group[connOverride]{Since: vBoysenberry, Write: writeBase, Read: func(rd *Reader, r *connOverride) error {
			if err := readBase(rd, r); err != nil {
				return err
			}
			_ = rd.ReadInt64()
			return rd.Err()
		}},
	)
	w := NewWriter(0)
	_ = greedy.EncodeTo(w, &connOverride{ConnectionID: 1}, vBoysenberry)
	_ = greedy.EncodeTo(w, &connOverride{ConnectionID: 2}, vBoysenberry)

	rd := NewReader(w.Bytes())
	if _, err := greedy.DecodeFrom(rd, vBoysenberry); !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("expected ErrMalformedRecord for over-read, got %v", err)
	}
	// the cursor sits on the next record which a correct decoder can read
	got, err := oldSchema.DecodeFrom(rd, vBoysenberry)
	if err != nil {
		t.Fatalf("next record: %v", err)
	}
	if got.ConnectionID != 2 {
		t.Fatalf("ConnectionID=%d want 2", got.ConnectionID)
	}
}

func TestUnderReadIsSkipped(t *testing.T) {
	lazy := MustSchema(
		Group[connOverride]{Since: vBoysenberry, Write: writeBase, Read: func(rd *Reader, r *connOverride) error {
			r.ConnectionID = rd.ReadInt32()
			return rd.Err()
		}},
	)
	w := NewWriter(0)
	_ = lazy.EncodeTo(w, &connOverride{ConnectionID: 1, Value: 9}, vBoysenberry)
	_ = lazy.EncodeTo(w, &connOverride{ConnectionID: 2, Value: 8}, vBoysenberry)

	rd := NewReader(w.Bytes())
	for want := int32(1); want <= 2; want++ {
		got, err := lazy.DecodeFrom(rd, vBoysenberry)
		if err != nil {
			t.Fatalf("record %d: %v", want, err)
		}
		if got.ConnectionID != want {
			t.Fatalf("ConnectionID=%d want %d", got.ConnectionID, want)
		}
	}
}

type profile struct {
	Name     string
	Override connOverride
}

var profileSchema = MustSchema(
	Group[profile]{
		Since: vBoysenberry,
		Write: func(w *Writer, p *profile) {
			w.WriteString(p.Name)
			_ = newSchema.EncodeTo(w, &p.Override, vFig)
		},
		Read: func(rd *Reader, p *profile) error {
			p.Name = rd.ReadString()
			if rd.Err() != nil {
				return rd.Err()
			}
			o, err := newSchema.DecodeFrom(rd, vFig)
			p.Override = o
			return err
		},
	},
)

func TestNestedRecords(t *testing.T) {
	p := profile{Name: "work", Override: connOverride{ConnectionID: 4, SubID: i32(1), Tags: []string{"a"}}}
	b, err := profileSchema.Encode(&p, vBoysenberry)
	if err != nil {
		t.Fatal(err)
	}
	got, err := profileSchema.Decode(b, vFig)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(got, p) {
		t.Fatalf("got=%+v want=%+v", got, p)
	}

	// corrupt the nested length; the outer record must fail too
	inner := HeaderSize + 4 + len(p.Name)
	binary.LittleEndian.PutUint32(b[inner+4:inner+8], 1<<20)
	if _, err := profileSchema.Decode(b, vFig); !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("expected ErrMalformedRecord from nested record, got %v", err)
	}
}

func TestEncodeInvalidVersion(t *testing.T) {
	if _, err := newSchema.Encode(&connOverride{}, 0); !errors.Is(err, ErrInvalidVersion) {
		t.Fatalf("expected ErrInvalidVersion, got %v", err)
	}
}

func TestNewSchemaValidation(t *testing.T) {
	noop := func(*Writer, *connOverride) {}
	noopRead := func(*Reader, *connOverride) error { return nil }
	cases := map[string][]Group[connOverride]{
		"empty":      nil,
		"zero":       {{Since: 0, Write: noop, Read: noopRead}},
		"descending": {{Since: 3, Write: noop, Read: noopRead}, {Since: 2, Write: noop, Read: noopRead}},
		"duplicate":  {{Since: 2, Write: noop, Read: noopRead}, {Since: 2, Write: noop, Read: noopRead}},
		"nil_read":   {{Since: 1, Write: noop}},
	}
	for name, groups := range cases {
		if _, err := NewSchema(groups...); !errors.Is(err, ErrInvalidSchema) {
			t.Fatalf("%s: expected ErrInvalidSchema, got %v", name, err)
		}
	}
}

func TestFrameStream(t *testing.T) {
	var buf bytes.Buffer
	recs := []connOverride{{ConnectionID: 1}, {ConnectionID: 2, Label: str("two")}}
	for i := range recs {
		if err := WriteFrame(&buf, newSchema, &recs[i], vFig); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}
	for i := range recs {
		b, err := ReadFrame(&buf, 1024)
		if err != nil {
			t.Fatalf("ReadFrame %d: %v", i, err)
		}
		got, err := newSchema.Decode(b, vFig)
		if err != nil {
			t.Fatalf("Decode %d: %v", i, err)
		}
		if !reflect.DeepEqual(got, recs[i]) {
			t.Fatalf("frame %d: got=%+v want=%+v", i, got, recs[i])
		}
	}
	if _, err := ReadFrame(&buf, 1024); err != io.EOF {
		t.Fatalf("expected io.EOF at end of stream, got %v", err)
	}
}

func TestReadFrameLimits(t *testing.T) {
	b, _ := newSchema.Encode(&connOverride{Label: str("0123456789")}, vFig)
	if _, err := ReadFrame(bytes.NewReader(b), 4); err == nil {
		t.Fatalf("expected size limit error")
	}
	if _, err := ReadFrame(bytes.NewReader(b[:len(b)-1]), 0); err != io.ErrUnexpectedEOF {
		t.Fatalf("expected io.ErrUnexpectedEOF, got %v", err)
	}
}

func TestWriterSeekOverwrites(t *testing.T) {
	w := NewWriter(0)
	w.WriteInt32(1)
	w.WriteInt32(2)
	w.Seek(0)
	w.WriteInt32(9)
	w.Seek(w.Len())
	if w.Len() != 8 {
		t.Fatalf("Len=%d want 8", w.Len())
	}
	rd := NewReader(w.Bytes())
	if a, b := rd.ReadInt32(), rd.ReadInt32(); a != 9 || b != 2 {
		t.Fatalf("got %d,%d want 9,2", a, b)
	}
}
