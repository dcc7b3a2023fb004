package signature

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parchment-labs/docproc/internal/common"
	"github.com/parchment-labs/docproc/internal/document"
)

func testFields() document.ExtractedFields {
	return document.ExtractedFields{
		"invoice_no": document.Scalar("12345"),
		"emails":     document.List([]string{"a@b.com"}),
	}
}

func TestStoreLearnAndGet(t *testing.T) {
	s := NewStore(nil)

	_, ok := s.GetRules("fp1", "")
	assert.False(t, ok)

	s.Learn("fp1", testFields(), "")
	rs, ok := s.GetRules("fp1", "")
	require.True(t, ok)
	assert.True(t, rs.Rules["invoice_no"].Equal(document.Scalar("12345")))

	// Sender lookup falls back to the global entry.
	rs, ok = s.GetRules("fp1", "acme")
	require.True(t, ok)
	assert.True(t, rs.Rules["invoice_no"].Equal(document.Scalar("12345")))
}

func TestStoreSenderPrecedence(t *testing.T) {
	s := NewStore(nil)
	s.Learn("fp1", document.ExtractedFields{"total": document.Scalar("global")}, "")
	s.Learn("fp1", document.ExtractedFields{"total": document.Scalar("acme")}, "acme")

	rs, ok := s.GetRules("fp1", "acme")
	require.True(t, ok)
	assert.Equal(t, "acme", rs.Rules["total"].String())

	rs, ok = s.GetRules("fp1", "globex")
	require.True(t, ok)
	assert.Equal(t, "global", rs.Rules["total"].String())
}

func TestStoreLearnOverwrites(t *testing.T) {
	s := NewStore(nil)
	s.Learn("fp1", document.ExtractedFields{"total": document.Scalar("1")}, "")
	s.Learn("fp1", document.ExtractedFields{"total": document.Scalar("2")}, "")

	rs, ok := s.GetRules("fp1", "")
	require.True(t, ok)
	assert.Equal(t, "2", rs.Rules["total"].String())
	assert.Equal(t, 1, s.Len())
}

func TestStoreLearnIdempotent(t *testing.T) {
	s := NewStore(nil)
	s.Learn("fp1", testFields(), "acme")
	first, ok := s.GetRules("fp1", "acme")
	require.True(t, ok)

	s.Learn("fp1", testFields(), "acme")
	second, ok := s.GetRules("fp1", "acme")
	require.True(t, ok)

	require.Len(t, second.Rules, len(first.Rules))
	for k, v := range first.Rules {
		assert.True(t, v.Equal(second.Rules[k]), "field %s changed", k)
	}
	assert.Equal(t, 1, s.Len())
}

func TestStoreLearnSnapshotsFields(t *testing.T) {
	s := NewStore(nil)
	fields := testFields()
	s.Learn("fp1", fields, "")

	// Mutating the caller's map must not leak into the store.
	fields["injected"] = document.Scalar("x")
	rs, _ := s.GetRules("fp1", "")
	assert.NotContains(t, rs.Rules, "injected")
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signatures.json")

	s := NewStore(nil)
	s.Learn("fp1", testFields(), "")
	s.Learn("fp2", document.ExtractedFields{"total": document.Scalar("42.00")}, "acme")
	require.NoError(t, s.Save(path))

	fresh := NewStore(nil)
	require.NoError(t, fresh.Load(path))
	assert.Equal(t, s.Len(), fresh.Len())

	for _, tc := range []struct{ fp, sender string }{
		{"fp1", ""},
		{"fp2", "acme"},
	} {
		want, ok := s.GetRules(tc.fp, tc.sender)
		require.True(t, ok)
		got, ok := fresh.GetRules(tc.fp, tc.sender)
		require.True(t, ok, "missing %s/%s after reload", tc.fp, tc.sender)
		require.Len(t, got.Rules, len(want.Rules))
		for k, v := range want.Rules {
			assert.True(t, v.Equal(got.Rules[k]))
		}
	}
}

func TestStoreLoadMissingFileIsEmpty(t *testing.T) {
	s := NewStore(nil)
	require.NoError(t, s.Load(filepath.Join(t.TempDir(), "nope.json")))
	assert.Equal(t, 0, s.Len())
}

func TestStoreLoadCorruptFileIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signatures.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := NewStore(nil)
	err := s.Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrCorruptStore))
}

func TestStoreConcurrentLearn(t *testing.T) {
	s := NewStore(nil)
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				s.Learn("fp", document.ExtractedFields{"n": document.Scalar("v")}, "")
				s.GetRules("fp", "")
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	rs, ok := s.GetRules("fp", "")
	require.True(t, ok)
	assert.Equal(t, "v", rs.Rules["n"].String())
}
