package sink

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

func TestMultiDeliversToAllAndJoinsErrors(t *testing.T) {
	var got []string
	errA := errors.New("a failed")
	errC := errors.New("c failed")
	m := Multi{
		Func(func(_ context.Context, text string) error { got = append(got, "a:"+text); return errA }),
		Func(func(_ context.Context, text string) error { got = append(got, "b:"+text); return nil }),
		Func(func(_ context.Context, text string) error { got = append(got, "c:"+text); return errC }),
	}

	err := m.OnDecoded(context.Background(), "x")
	if want := []string{"a:x", "b:x", "c:x"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("delivered %v, want %v", got, want)
	}
	if !errors.Is(err, errA) || !errors.Is(err, errC) {
		t.Fatalf("expected joined errors, got %v", err)
	}
	if err := (Multi{}).OnDecoded(context.Background(), "x"); err != nil {
		t.Fatalf("empty multi must not fail, got %v", err)
	}
}

func TestURLOpener(t *testing.T) {
	cases := map[string]struct {
		schemes []string
		text    string
		want    string
		wantErr bool
	}{
		"https":          {nil, "https://example.com", "https://example.com", false},
		"trimmed":        {nil, "  http://example.com/a?b=1\n", "http://example.com/a?b=1", false},
		"plain text":     {nil, "hello world", "", true},
		"no host":        {nil, "https://", "", true},
		"scheme blocked": {nil, "ftp://example.com/file", "", true},
		"scheme allowed": {[]string{"ftp"}, "ftp://example.com/file", "ftp://example.com/file", false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var opened []string
			o := NewURLOpener(tc.schemes...)
			o.open = func(u string) error { opened = append(opened, u); return nil }

			err := o.OnDecoded(context.Background(), tc.text)
			if tc.wantErr {
				if !errors.Is(err, ErrNotURL) {
					t.Fatalf("expected ErrNotURL, got %v", err)
				}
				if len(opened) != 0 {
					t.Fatalf("nothing should open, opened %v", opened)
				}
				return
			}
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			if !reflect.DeepEqual(opened, []string{tc.want}) {
				t.Fatalf("opened %v, want %q", opened, tc.want)
			}
		})
	}
}

func TestURLOpenerWrapsBrowserError(t *testing.T) {
	boom := errors.New("no browser")
	o := NewURLOpener()
	o.open = func(string) error { return boom }
	if err := o.OnDecoded(context.Background(), "https://example.com"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped browser error, got %v", err)
	}
}

func TestHistoryPersistsDistinctPayloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.json")
	h, err := OpenHistory(path, "camera-1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	base := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	h.clock = func() time.Time { return base }

	for _, text := range []string{"https://a.example", "https://b.example", "https://a.example"} {
		if err := h.OnDecoded(context.Background(), text); err != nil {
			t.Fatalf("record %q: %v", text, err)
		}
	}

	reopened, err := OpenHistory(path, "camera-1")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	records := reopened.All()
	if len(records) != 2 {
		t.Fatalf("expected 2 distinct records, got %d", len(records))
	}
	if records[0].Text != "https://a.example" || records[1].Text != "https://b.example" {
		t.Fatalf("unexpected order %+v", records)
	}
	if records[0].ID == "" || records[0].ID == records[1].ID {
		t.Fatalf("expected unique IDs, got %q and %q", records[0].ID, records[1].ID)
	}
	if records[0].Source != "camera-1" || !records[0].DecodedAt.Equal(base) {
		t.Fatalf("unexpected metadata %+v", records[0])
	}

	added, err := reopened.Add("https://b.example")
	if err != nil || added {
		t.Fatalf("duplicate add = %v, %v", added, err)
	}
}

func TestHistoryClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	h, err := OpenHistory(path, "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := h.Add("x"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := h.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected file removed, stat err %v", err)
	}
	if len(h.All()) != 0 {
		t.Fatalf("expected no records after clear")
	}
	if err := h.Clear(); err != nil {
		t.Fatalf("clear of missing file: %v", err)
	}
}

func TestOpenHistoryRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := OpenHistory(path, ""); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := OpenHistory("", ""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestEncodeRecordFormats(t *testing.T) {
	rec := Record{ID: "id-1", Text: "https://example.com", Source: "cam", DecodedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}

	data, err := encodeRecord(FormatJSON, rec)
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("json payload: %v", err)
	}
	if fields["text"] != "https://example.com" || fields["decoded_at"] != "2026-01-02T03:04:05Z" {
		t.Fatalf("unexpected json payload %s", data)
	}

	data, err = encodeRecord(FormatMsgpack, rec)
	if err != nil {
		t.Fatalf("msgpack: %v", err)
	}
	var back Record
	if err := msgpack.Unmarshal(data, &back); err != nil {
		t.Fatalf("msgpack payload: %v", err)
	}
	if back.Text != rec.Text || back.Source != rec.Source {
		t.Fatalf("unexpected msgpack payload %+v", back)
	}

	if _, err := encodeRecord("xml", rec); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestNewMQTTValidation(t *testing.T) {
	cases := map[string]MQTTOptions{
		"no broker":  {Topic: "t"},
		"no topic":   {Broker: "localhost:1883"},
		"bad qos":    {Broker: "localhost:1883", Topic: "t", QoS: 3},
		"bad format": {Broker: "localhost:1883", Topic: "t", Format: "xml"},
	}
	for name, opts := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := NewMQTT(opts); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
