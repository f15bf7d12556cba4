package service

import (
	"context"
	"io"
	"testing"

	"github.com/andreypavlenko/crmcore/modules/imports/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memFileStore is an in-memory ports.FileStore fake for tests that
// exercise the streaming reader without a real S3 dependency.
type memFileStore struct {
	objects map[string][]byte
}

func newMemFileStore() *memFileStore {
	return &memFileStore{objects: make(map[string][]byte)}
}

func (m *memFileStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	m.objects[key] = body
	return nil
}

func (m *memFileStore) Open(ctx context.Context, key string) (ports.ReadCloser, error) {
	return &memReadCloser{data: m.objects[key]}, nil
}

func (m *memFileStore) Delete(ctx context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

type memReadCloser struct {
	data []byte
	pos  int
}

func (r *memReadCloser) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

func (r *memReadCloser) Close() error { return nil }

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, ',', detectDelimiter([]byte("a,b,c\n1,2,3\n")))
	assert.Equal(t, ';', detectDelimiter([]byte("a;b;c\n1;2;3\n")))
	assert.Equal(t, '\t', detectDelimiter([]byte("a\tb\tc\n1\t2\t3\n")))
}

func TestDedupeHeaders(t *testing.T) {
	result := dedupeHeaders([]string{"Email", "Email", "Name", "Email"})
	assert.Equal(t, []string{"Email", "Email_2", "Name", "Email_3"}, result)
}

func TestCountRows(t *testing.T) {
	store := newMemFileStore()
	store.objects["f.csv"] = []byte("Email,Name\na@b.com,Alice\nc@d.com,Bob\n")

	total, headers, err := CountRows(context.Background(), store, "f.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, []string{"Email", "Name"}, headers)
}

func TestCountRows_HeadersOnly(t *testing.T) {
	store := newMemFileStore()
	store.objects["f.csv"] = []byte("Email,Name\n")

	total, _, err := CountRows(context.Background(), store, "f.csv")
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestStreamRows_Batches(t *testing.T) {
	store := newMemFileStore()
	store.objects["f.csv"] = []byte("Email,Name\na@b.com,Alice\nc@d.com,Bob\ne@f.com,Carl\n")

	var batches [][]CSVRow
	err := StreamRows(context.Background(), store, "f.csv", 2, func(batch []CSVRow) error {
		cp := make([]CSVRow, len(batch))
		copy(cp, batch)
		batches = append(batches, cp)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[1], 1)
	assert.Equal(t, "Alice", batches[0][0].Fields["Name"])
}

func TestSuggestMapping(t *testing.T) {
	mapping := SuggestMapping([]string{"First Name", "Last Name", "Email Address", "Company", "Position", "Connected On", "Profile URL"})
	assert.Equal(t, "First Name", mapping["first_name"])
	assert.Equal(t, "Last Name", mapping["last_name"])
	assert.Equal(t, "Email Address", mapping["email"])
	assert.Equal(t, "Company", mapping["company"])
	assert.Equal(t, "Position", mapping["job_title"])
	assert.Equal(t, "Connected On", mapping["connected_on"])
	assert.Equal(t, "Profile URL", mapping["linkedin_url"])
}
