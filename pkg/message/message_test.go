package message

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tap-redshift/pkg/catalog"
	"github.com/ajitpratap0/tap-redshift/pkg/json"
	"github.com/ajitpratap0/tap-redshift/pkg/state"
	"github.com/ajitpratap0/tap-redshift/pkg/taperrors"
)

func TestWriterWireFormat(t *testing.T) {
	props := catalog.NewProperties()
	props.Set("id", &catalog.Schema{Type: catalog.TypeList{catalog.TypeInteger}, Inclusion: catalog.InclusionAvailable})

	version := int64(1527192348373)
	st := state.New()
	st.SetCurrentlySyncing("dev.public.orders")
	st.WriteBookmark("dev.public.orders", state.KeyVersion, version)

	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.Write(StateMessage{Value: st}))
	require.NoError(t, w.Write(SchemaMessage{
		Stream: "orders",
		Schema: &catalog.Schema{Type: catalog.TypeList{catalog.TypeObject}, Properties: props},
	}))
	require.NoError(t, w.Write(RecordMessage{
		Stream:        "orders",
		Record:        map[string]interface{}{"id": 1, "amount": json.Number("10.50")},
		Version:       &version,
		TimeExtracted: time.Date(2018, 5, 24, 20, 5, 48, 373000000, time.UTC),
	}))
	require.NoError(t, w.Write(ActivateVersionMessage{Stream: "orders", Version: version}))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)

	assert.JSONEq(t, `{"type":"STATE","value":{"currently_syncing":"dev.public.orders","bookmarks":{"dev.public.orders":{"version":1527192348373}}}}`, lines[0])
	assert.JSONEq(t, `{"type":"SCHEMA","stream":"orders","schema":{"type":"object","properties":{"id":{"type":"integer","inclusion":"available"}}},"key_properties":[]}`, lines[1])
	assert.JSONEq(t, `{"type":"RECORD","stream":"orders","record":{"amount":10.50,"id":1},"version":1527192348373,"time_extracted":"2018-05-24T20:05:48.373000Z"}`, lines[2])
	assert.Contains(t, lines[2], `"amount":10.50`)
	assert.JSONEq(t, `{"type":"ACTIVATE_VERSION","stream":"orders","version":1527192348373}`, lines[3])
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestWriterError(t *testing.T) {
	err := NewWriter(failingWriter{}).Write(ActivateVersionMessage{Stream: "orders", Version: 1})
	require.Error(t, err)
	assert.True(t, taperrors.IsType(err, taperrors.ErrorTypeOutput))
}

func TestCollector(t *testing.T) {
	var c Collector
	require.NoError(t, c.Write(StateMessage{Value: state.New()}))
	require.NoError(t, c.Write(ActivateVersionMessage{Stream: "orders"}))
	assert.Equal(t, []Type{TypeState, TypeActivateVersion}, c.Types())
}
