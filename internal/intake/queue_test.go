package intake_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmorgal/bankfeed/internal/catalog"
	"github.com/jmorgal/bankfeed/internal/intake"
)

func csvTemplate() *catalog.Template {
	return &catalog.Template{
		ID:              "abc-sav-csv",
		InstitutionCode: "abc",
		RecordType:      catalog.RecordSavings,
		Format:          catalog.FormatCSV,
	}
}

func TestQueue_Add(t *testing.T) {
	q := intake.NewQueue()

	rejected, err := q.Add(csvTemplate(),
		intake.FromBytes("data.csv", []byte("a,b\n")),
		intake.FromBytes("data.pdf", []byte("%PDF")),
		intake.FromBytes("MORE.CSV", []byte("c,d\n")),
		intake.FromBytes("noext", nil),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"data.pdf", "noext"}, rejected)
	require.Equal(t, 2, q.Len())

	// Caller ordering of the accepted files is preserved.
	first, _ := q.File(0)
	second, _ := q.File(1)
	assert.Equal(t, "data.csv", first.Payload.Name())
	assert.Equal(t, "MORE.CSV", second.Payload.Name())

	for _, f := range q.Files() {
		assert.Equal(t, intake.StatusIdle, f.Status)
		assert.Equal(t, "abc-sav-csv", f.TemplateID)
	}
}

func TestQueue_Add_NoActiveTemplate(t *testing.T) {
	q := intake.NewQueue()

	_, err := q.Add(nil, intake.FromBytes("data.csv", nil))
	assert.ErrorIs(t, err, intake.ErrNoActiveTemplate)
	assert.Equal(t, 0, q.Len(), "a rejected submission never mutates the queue")
}

func TestQueue_Remove(t *testing.T) {
	q := intake.NewQueue()

	_, err := q.Add(csvTemplate(),
		intake.FromBytes("a.csv", nil),
		intake.FromBytes("b.csv", nil),
	)
	require.NoError(t, err)

	// Files mid-transport are not removable.
	require.True(t, q.StartUpload(0))
	assert.ErrorIs(t, q.Remove(0), intake.ErrNotRemovable)

	q.StartProcessing(0, "42")
	assert.ErrorIs(t, q.Remove(0), intake.ErrNotRemovable)

	q.Fail(0, "boom")
	require.NoError(t, q.Remove(0))
	assert.Equal(t, 1, q.Len())

	// Idle files are removable.
	require.NoError(t, q.Remove(0))
	assert.Equal(t, 0, q.Len())

	assert.Error(t, q.Remove(0), "out of range")
}

func TestQueue_Retry(t *testing.T) {
	q := intake.NewQueue()

	_, err := q.Add(csvTemplate(), intake.FromBytes("a.csv", nil))
	require.NoError(t, err)

	// Retry from any non-error status is a no-op.
	require.NoError(t, q.Retry(0))
	f, _ := q.File(0)
	assert.Equal(t, intake.StatusIdle, f.Status)

	require.True(t, q.StartUpload(0))
	require.NoError(t, q.Retry(0))
	f, _ = q.File(0)
	assert.Equal(t, intake.StatusUploading, f.Status)

	q.SetProgress(0, 60)
	q.Fail(0, "network error")

	require.NoError(t, q.Retry(0))

	f, _ = q.File(0)
	assert.Equal(t, intake.StatusIdle, f.Status)
	assert.Equal(t, 0, f.Progress)
	assert.Empty(t, f.ErrorMessage)
	assert.Empty(t, f.JobID)
	assert.NotNil(t, f.Payload, "the original payload survives a retry")
}

func TestQueue_Lifecycle(t *testing.T) {
	q := intake.NewQueue()

	_, err := q.Add(csvTemplate(), intake.FromBytes("a.csv", nil))
	require.NoError(t, err)

	require.True(t, q.StartUpload(0))
	assert.False(t, q.StartUpload(0), "a second start on the same file is rejected")

	q.SetProgress(0, 40)
	q.SetProgress(0, 20) // progress never decreases
	q.SetProgress(0, 250)

	f, _ := q.File(0)
	assert.Equal(t, 100, f.Progress)

	q.StartProcessing(0, "42")

	f, _ = q.File(0)
	assert.Equal(t, intake.StatusProcessing, f.Status)
	assert.Equal(t, "42", f.JobID)

	q.SetProgress(0, 99)
	f, _ = q.File(0)
	assert.Equal(t, 100, f.Progress, "progress is only meaningful while uploading")

	q.Complete(0, 17)

	f, _ = q.File(0)
	assert.Equal(t, intake.StatusSuccess, f.Status)
	assert.Equal(t, 17, f.TransactionCount)

	// Terminal success is never mutated further.
	q.Fail(0, "late failure")
	q.Complete(0, 99)

	f, _ = q.File(0)
	assert.Equal(t, intake.StatusSuccess, f.Status)
	assert.Equal(t, 17, f.TransactionCount)
	assert.Empty(t, f.ErrorMessage)
}

func TestQueue_FailFromUploading(t *testing.T) {
	q := intake.NewQueue()

	_, err := q.Add(csvTemplate(), intake.FromBytes("a.csv", nil))
	require.NoError(t, err)

	require.True(t, q.StartUpload(0))
	q.Fail(0, "connection reset")

	f, _ := q.File(0)
	assert.Equal(t, intake.StatusError, f.Status)
	assert.Equal(t, "connection reset", f.ErrorMessage)
	assert.Empty(t, f.JobID, "the job id is only set once processing starts")
}
