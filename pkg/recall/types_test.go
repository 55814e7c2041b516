package recall_test

import (
	"encoding/json"
	"testing"

	"github.com/contamio/recallctl/pkg/recall"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_Accessors(t *testing.T) {
	t.Parallel()

	var record recall.Record

	err := json.Unmarshal([]byte(`{
		"id": "r-1",
		"region": "EU",
		"severity": "high",
		"title": "Brake hose",
		"status": "in_progress",
		"corrective_action": "Replace hose",
		"vin_prefix": "WVW"
	}`), &record)
	require.NoError(t, err)

	assert.Equal(t, "r-1", record.ID())
	assert.Equal(t, "EU", record.Region())
	assert.Equal(t, "high", record.Severity())
	assert.Equal(t, "Brake hose", record.Title())
	assert.Equal(t, recall.StatusInProgress, record.Status())
	assert.Equal(t, "Replace hose", record.CorrectiveAction())
	assert.Equal(t, "WVW", record.Field("vin_prefix"))
	assert.NoError(t, record.Validate())
}

func TestRecord_Field(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    interface{}
		expected string
	}{
		{name: "string", value: "EU", expected: "EU"},
		{name: "integral float", value: float64(42), expected: "42"},
		{name: "fractional float", value: 1.5, expected: "1.5"},
		{name: "bool", value: true, expected: "true"},
		{name: "int", value: 7, expected: "7"},
		{name: "null", value: nil, expected: ""},
		{name: "array", value: []interface{}{"a", "b"}, expected: `["a","b"]`},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			record := recall.Record{"x": testCase.value}
			assert.Equal(t, testCase.expected, record.Field("x"))
		})
	}
}

func TestRecord_Has(t *testing.T) {
	t.Parallel()

	record := recall.Record{"region": "EU", "severity": nil}

	assert.True(t, record.Has("region"))
	assert.False(t, record.Has("severity"))
	assert.False(t, record.Has("title"))
}

func TestRecord_Validate(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, recall.Record{"title": "no id"}.Validate(), recall.ErrMissingID)
	require.ErrorIs(t, recall.Record{"id": "  "}.Validate(), recall.ErrMissingID)
	require.ErrorIs(t, recall.Record{"id": nil}.Validate(), recall.ErrMissingID)
	require.NoError(t, recall.Record{"id": float64(12)}.Validate())
}

func TestRecord_Clone(t *testing.T) {
	t.Parallel()

	original := recall.Record{"id": "r-1", "status": "open"}
	clone := original.Clone()
	clone["status"] = "closed"

	assert.Equal(t, "open", original["status"])
	assert.Equal(t, "closed", clone["status"])
}

func TestCollection_Validate(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		collection := recall.Collection{{"id": "a"}, {"id": "b"}}
		require.NoError(t, collection.Validate())
		assert.Equal(t, []string{"a", "b"}, collection.IDs())
	})

	t.Run("missing id", func(t *testing.T) {
		t.Parallel()

		collection := recall.Collection{{"id": "a"}, {"title": "orphan"}}
		err := collection.Validate()
		require.ErrorIs(t, err, recall.ErrMissingID)
		assert.Contains(t, err.Error(), "record 1")
	})

	t.Run("duplicate id", func(t *testing.T) {
		t.Parallel()

		collection := recall.Collection{{"id": "a"}, {"id": "a"}}
		require.ErrorIs(t, collection.Validate(), recall.ErrDuplicateID)
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()

		require.NoError(t, recall.Collection{}.Validate())
	})
}

func TestCollection_Find(t *testing.T) {
	t.Parallel()

	collection := recall.Collection{{"id": "a", "title": "A"}, {"id": float64(2), "title": "B"}}

	record, ok := collection.Find("2")
	require.True(t, ok)
	assert.Equal(t, "B", record.Title())

	_, ok = collection.Find("missing")
	assert.False(t, ok)
}

func TestParseStatus(t *testing.T) {
	t.Parallel()

	for _, status := range recall.Statuses() {
		parsed, err := recall.ParseStatus(string(status))
		require.NoError(t, err)
		assert.Equal(t, status, parsed)
	}

	parsed, err := recall.ParseStatus(" closed ")
	require.NoError(t, err)
	assert.Equal(t, recall.StatusClosed, parsed)

	_, err = recall.ParseStatus("archived")
	require.ErrorIs(t, err, recall.ErrInvalidStatus)
}

func TestStatuses(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []recall.Status{
		recall.StatusOpen,
		recall.StatusInProgress,
		recall.StatusClosed,
		recall.StatusResolved,
	}, recall.Statuses())
	assert.False(t, recall.Status("").Valid())
}

func TestUpdatePayload_JSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(recall.UpdatePayload{Status: recall.StatusClosed})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"closed"}`, string(data))

	data, err = json.Marshal(recall.NewUpdatePayload(recall.StatusResolved, ""))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"resolved","corrective_action":""}`, string(data))
}

func TestUpdatePayload_Validate(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, recall.UpdatePayload{}.Validate(), recall.ErrEmptyUpdate)
	require.ErrorIs(t, recall.UpdatePayload{Status: "archived"}.Validate(), recall.ErrInvalidStatus)
	require.NoError(t, recall.UpdatePayload{Status: recall.StatusOpen}.Validate())

	text := "Recall notice sent"
	require.NoError(t, recall.UpdatePayload{CorrectiveAction: &text}.Validate())
}

func TestUpdatePayload_Apply(t *testing.T) {
	t.Parallel()

	original := recall.Record{"id": "r-1", "status": "open", "corrective_action": "", "title": "Airbag"}

	updated := recall.NewUpdatePayload(recall.StatusClosed, "Replaced inflator").Apply(original)
	assert.Equal(t, recall.StatusClosed, updated.Status())
	assert.Equal(t, "Replaced inflator", updated.CorrectiveAction())
	assert.Equal(t, "Airbag", updated.Title())
	assert.Equal(t, recall.StatusOpen, original.Status())

	statusOnly := recall.UpdatePayload{Status: recall.StatusResolved}.Apply(original)
	assert.Equal(t, recall.StatusResolved, statusOnly.Status())
	assert.Empty(t, statusOnly.CorrectiveAction())
}
