package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ftplog/internal/domain"
	"ftplog/mocks"
)

func inputFile(key string) domain.InputFile {
	return domain.InputFile{
		URI:    "s3://ftplog-bucket/" + key,
		Bucket: "ftplog-bucket",
		Key:    key,
	}
}

func TestLogicalName(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"s3://bucket/logs/FTP-20260128-0001.json", "FTP-20260128-0001"},
		{"gs://bucket/logs/foo.json", "foo"},
		{"logs/nested/dir/bar.json", "bar"},
		{"s3://bucket/logs/archive.ndjson", "archive"},
		{"s3://bucket/logs/noext", "noext"},
		{"s3://bucket/logs/.json", UnknownName},
		{"s3://bucket/logs/", "logs"},
		{"", UnknownName},
		{"   ", UnknownName},
		{"s3://", UnknownName},
		{"/", UnknownName},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			assert.NotPanics(t, func() { _ = LogicalName(tt.uri) })
			assert.Equal(t, tt.want, LogicalName(tt.uri))
		})
	}
}

func TestMatcher(t *testing.T) {
	m := Matcher{Prefix: "logs/", Suffix: ".json"}

	assert.True(t, m.Match("logs/a.json"))
	assert.True(t, m.Match("logs/2026/01/a.json"))
	assert.False(t, m.Match("logs/a.txt"))
	assert.False(t, m.Match("other/a.json"))
	assert.False(t, m.Match("logsx/a.json"))
	assert.False(t, m.Match("logs/.placeholder"))
	assert.False(t, m.Match("logs/a.json.placeholder"))

	open := Matcher{}
	assert.True(t, open.Match("anything"))
}

func TestFilter_RemovesRecordedAndSorts(t *testing.T) {
	files := []domain.InputFile{
		inputFile("logs/c.json"),
		inputFile("logs/a.json"),
		inputFile("logs/b.json"),
		inputFile("logs/a.json"),
	}
	recorded := map[string]struct{}{"s3://ftplog-bucket/logs/b.json": {}}

	got := Filter(files, recorded)

	require.Len(t, got, 2)
	assert.Equal(t, "s3://ftplog-bucket/logs/a.json", got[0].URI)
	assert.Equal(t, "s3://ftplog-bucket/logs/c.json", got[1].URI)
	assert.Len(t, files, 4, "input must not be mutated")
}

func TestFilter_Empty(t *testing.T) {
	assert.Empty(t, Filter(nil, nil))
	assert.Empty(t, Filter([]domain.InputFile{inputFile("logs/a.json")},
		map[string]struct{}{"s3://ftplog-bucket/logs/a.json": {}}))
}

func TestDiscoverer_Discover(t *testing.T) {
	lister := new(mocks.MockBlobLister)
	ledger := new(mocks.MockLedgerStore)

	lister.On("List", mock.Anything).Return([]domain.InputFile{
		inputFile("logs/new.json"),
		inputFile("logs/done.json"),
		inputFile("logs/readme.txt"),
		inputFile("logs/.placeholder"),
	}, nil)
	ledger.On("RecordedURIs", mock.Anything, []string{
		"s3://ftplog-bucket/logs/new.json",
		"s3://ftplog-bucket/logs/done.json",
	}).Return(map[string]struct{}{"s3://ftplog-bucket/logs/done.json": {}}, nil)

	d := NewDiscoverer(lister, ledger, Matcher{Prefix: "logs", Suffix: ".json"})
	res, err := d.Discover(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 4, res.Listed)
	assert.Equal(t, 2, res.Matched)
	require.Len(t, res.Pending, 1)
	assert.Equal(t, "new", res.Pending[0].LogicalName)
	assert.False(t, res.Pending[0].DiscoveredAt.IsZero())
	ledger.AssertExpectations(t)
}

func TestDiscoverer_NoCandidatesSkipsLedger(t *testing.T) {
	lister := new(mocks.MockBlobLister)
	ledger := new(mocks.MockLedgerStore)
	lister.On("List", mock.Anything).Return([]domain.InputFile{inputFile("logs/readme.txt")}, nil)

	d := NewDiscoverer(lister, ledger, Matcher{Prefix: "logs", Suffix: ".json"})
	res, err := d.Discover(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, res.Listed)
	assert.Zero(t, res.Matched)
	assert.Empty(t, res.Pending)
	ledger.AssertNotCalled(t, "RecordedURIs", mock.Anything, mock.Anything)
}

func TestDiscoverer_ListError(t *testing.T) {
	lister := new(mocks.MockBlobLister)
	ledger := new(mocks.MockLedgerStore)
	lister.On("List", mock.Anything).Return(nil, errors.New("access denied"))

	d := NewDiscoverer(lister, ledger, Matcher{})
	_, err := d.Discover(context.Background())

	assert.ErrorIs(t, err, domain.ErrListingFailed)
}

func TestDiscoverer_LedgerError(t *testing.T) {
	lister := new(mocks.MockBlobLister)
	ledger := new(mocks.MockLedgerStore)
	lister.On("List", mock.Anything).Return([]domain.InputFile{inputFile("logs/a.json")}, nil)
	ledger.On("RecordedURIs", mock.Anything, mock.Anything).Return(nil, context.DeadlineExceeded)

	d := NewDiscoverer(lister, ledger, Matcher{})
	_, err := d.Discover(context.Background())

	assert.ErrorIs(t, err, domain.ErrLedgerUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
