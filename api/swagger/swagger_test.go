package swagger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestDocIsRegisteredAndValidJSON(t *testing.T) {
	doc, err := swag.ReadDoc()
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(doc), &parsed))
	paths := parsed["paths"].(map[string]interface{})
	require.Contains(t, paths, "/api/v1/rankings")
	require.Contains(t, paths, "/api/v1/pending/approve")
}
