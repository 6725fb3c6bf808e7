package parser

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studiowebux/jobbench/internal/types"
)

func u64(v uint64) *uint64 { return &v }

func TestMaterialize_SeqNumURL(t *testing.T) {
	job := &types.Job{
		URL: "http://x/<n:SeqNum>",
		Params: map[string]types.Param{
			"n": {InitSeqNum: u64(5), Step: u64(2)},
		},
	}

	tmpl, err := Compile(job)
	require.NoError(t, err)

	var urls []string
	for i := uint64(0); i < 3; i++ {
		req, err := tmpl.Materialize(i)
		require.NoError(t, err)
		urls = append(urls, req.URL)
	}

	assert.Equal(t, []string{"http://x/5", "http://x/7", "http://x/9"}, urls)
}

func TestMaterialize_SeqNumFallbacks(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]types.Param
		base   uint64
		index  uint64
		want   string
	}{
		{"no param uses job init", nil, 100, 3, "103"},
		{"param without init uses job init", map[string]types.Param{"n": {Step: u64(10)}}, 7, 2, "27"},
		{"param without step steps by one", map[string]types.Param{"n": {InitSeqNum: u64(50)}}, 7, 4, "54"},
		{"zero step stays constant", map[string]types.Param{"n": {InitSeqNum: u64(9), Step: u64(0)}}, 0, 1000, "9"},
		{"other param ignored", map[string]types.Param{"m": {InitSeqNum: u64(1)}}, 0, 5, "5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &types.Job{URL: "http://x/<n:SeqNum>", Params: tt.params, InitSeqNum: tt.base}
			req, err := Materialize(job, tt.index)
			require.NoError(t, err)
			assert.Equal(t, "http://x/"+tt.want, req.URL)
		})
	}
}

func TestMaterialize_BodyAndHeaders(t *testing.T) {
	job := &types.Job{
		URL:    "http://localhost/orders",
		Method: types.MethodPut,
		Headers: map[string]any{
			"X-Seq":   "<n:SeqNum>",
			"X-Trace": "trace-<n:SeqNum>-<n:SeqNum>",
		},
		Body: map[string]any{
			"id":    "<n:SeqNum>",
			"count": int64(3),
			"items": []any{"<n:SeqNum>", true, map[string]any{"ref": "r<m:SeqNum>"}},
			"html":  "<b>bold</b>",
		},
		Params: map[string]types.Param{
			"m": {InitSeqNum: u64(1000), Step: u64(10)},
		},
		InitSeqNum: 1,
	}

	req, err := Materialize(job, 4)
	require.NoError(t, err)

	assert.Equal(t, types.MethodPut, req.Method)
	assert.Equal(t, "5", req.Headers["X-Seq"])
	assert.Equal(t, "trace-5-5", req.Headers["X-Trace"])

	body, ok := req.Body.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "5", body["id"])
	assert.Equal(t, int64(3), body["count"])
	assert.Equal(t, "<b>bold</b>", body["html"])

	items := body["items"].([]any)
	assert.Equal(t, "5", items[0])
	assert.Equal(t, true, items[1])
	assert.Equal(t, "r1040", items[2].(map[string]any)["ref"])
}

func TestMaterialize_MapKeysExpanded(t *testing.T) {
	job := &types.Job{
		URL:  "http://x",
		Body: map[string]any{"key_<n:SeqNum>": "v"},
	}

	req, err := Materialize(job, 2)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"key_2": "v"}, req.Body)
}

func TestMaterialize_Pure(t *testing.T) {
	job := &types.Job{
		URL:     "http://x/<n:SeqNum>",
		Headers: map[string]any{"X-Id": "<id:UUID>"},
		Body: map[string]any{
			"seq":  "<n:SeqNum>",
			"uuid": "<id:UUID>",
			"list": []map[string]any{{"a": "<n:SeqNum>"}},
		},
	}
	tmpl, err := Compile(job)
	require.NoError(t, err)

	for _, index := range []uint64{0, 1, 99} {
		first, err := tmpl.Materialize(index)
		require.NoError(t, err)
		second, err := tmpl.Materialize(index)
		require.NoError(t, err)

		a, err := json.Marshal(first)
		require.NoError(t, err)
		b, err := json.Marshal(second)
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b))
	}

	// The job itself is untouched
	assert.Equal(t, "<n:SeqNum>", job.Body.(map[string]any)["seq"])
	assert.Equal(t, "<id:UUID>", job.Headers["X-Id"])
}

func TestMaterialize_UUID(t *testing.T) {
	job := &types.Job{
		URL:     "http://x",
		Headers: map[string]any{"X-Request-Id": "<rid:UUID>"},
		Body:    map[string]any{"rid": "<rid:UUID>", "other": "<oid:UUID>"},
	}
	tmpl, err := Compile(job)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := uint64(0); i < 50; i++ {
		req, err := tmpl.Materialize(i)
		require.NoError(t, err)

		id := req.Headers["X-Request-Id"]
		parsed, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(5), parsed.Version())

		body := req.Body.(map[string]any)
		assert.Equal(t, id, body["rid"], "same token must expand identically within a request")
		assert.NotEqual(t, id, body["other"], "different names must expand differently")

		assert.False(t, seen[id], "uuid repeated at index %d", i)
		seen[id] = true
	}
}

func TestCompile_UnknownKind(t *testing.T) {
	job := &types.Job{URL: "http://x/<n:Random>"}

	_, err := Compile(job)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfig))
	assert.Contains(t, err.Error(), "Random")
}

func TestCompile_Tokens(t *testing.T) {
	job := &types.Job{
		URL:     "http://x/<a:SeqNum>",
		Headers: map[string]any{"X": "<b:UUID>"},
		Body:    map[string]any{"a": "<a:SeqNum>", "nested": []any{"<c:SeqNum>"}},
	}

	tmpl, err := Compile(job)
	require.NoError(t, err)
	assert.Equal(t, []Token{
		{Name: "a", Kind: KindSeqNum},
		{Name: "b", Kind: KindUUID},
		{Name: "c", Kind: KindSeqNum},
	}, tmpl.Tokens())
}

func TestMaterialize_NonStringHeader(t *testing.T) {
	job := &types.Job{
		URL:     "http://x",
		Headers: map[string]any{"X-Count": int64(5)},
	}

	tmpl, err := Compile(job)
	require.NoError(t, err, "non-string headers fail at materialization, not compilation")

	_, err = tmpl.Materialize(0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMaterialize))
	assert.Contains(t, err.Error(), "X-Count")
}

func TestMaterialize_ExpandedKeyCollision(t *testing.T) {
	job := &types.Job{
		URL:    "http://x",
		Body:   map[string]any{"a_<n:SeqNum>": "tok", "a_1": "lit"},
		Params: map[string]types.Param{"n": {}},
	}

	tmpl, err := Compile(job)
	require.NoError(t, err)

	_, err = tmpl.Materialize(0)
	require.NoError(t, err, "a_0 does not collide")

	_, err = tmpl.Materialize(1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMaterialize))
	assert.Contains(t, err.Error(), `"a_1"`)
}

func TestMaterialize_DefaultMethod(t *testing.T) {
	req, err := Materialize(&types.Job{URL: "http://x"}, 0)
	require.NoError(t, err)
	assert.Equal(t, types.MethodPost, req.Method)
	assert.Nil(t, req.Body)
}
