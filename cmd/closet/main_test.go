package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/closet/service"
	"github.com/viant/closet/wardrobe"
)

func setup(t *testing.T) string {
	t.Helper()
	t.Setenv("OPENWEATHER_KEY", "")
	t.Setenv("CLOSET_CONFIG", "")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r.Body)
		vec := []float32{0, 0, 0}
		for i := 0; i < len(vec) && i < buf.Len(); i++ {
			vec[i] = float32(buf.Bytes()[i])
		}
		_ = json.NewEncoder(w).Encode(map[string][]float32{"embedding": vec})
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "closet.yaml")
	cfg := fmt.Sprintf(`state:
  path: %s
images:
  dir: %s
extractor:
  url: %s
logging:
  level: error
seed: 11
`, filepath.Join(dir, "closet.state"), filepath.Join(dir, "images"), srv.URL)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	return cfgPath
}

func run(t *testing.T, cfgPath string, args ...string) ([]byte, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.Execute()
	return out.Bytes(), err
}

func writeImage(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "garment.jpg")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCLI_Workflow(t *testing.T) {
	cfgPath := setup(t)

	out, err := run(t, cfgPath, "add", writeImage(t, "aaa"), "--category", "T-Shirt", "--color", "blue")
	require.NoError(t, err)
	var added wardrobe.GarmentItem
	require.NoError(t, json.Unmarshal(out, &added))
	assert.Equal(t, 0, added.ID)
	assert.Equal(t, "blue", added.Color)

	_, err = run(t, cfgPath, "add", writeImage(t, "aab"), "--category", "Jeans")
	require.NoError(t, err)

	out, err = run(t, cfgPath, "list")
	require.NoError(t, err)
	var listed struct {
		Items []wardrobe.GarmentItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(out, &listed))
	require.Len(t, listed.Items, 2)
	assert.Equal(t, "Jeans", listed.Items[1].Category)

	out, err = run(t, cfgPath, "recommend", "--occasion", "birthday")
	require.NoError(t, err)
	var rec service.Recommendation
	require.NoError(t, json.Unmarshal(out, &rec))
	assert.Equal(t, "T-Shirt", rec.Top.Category)
	assert.Equal(t, "Jeans", rec.Bottom.Category)
	assert.Equal(t, "casual", rec.Occasion)
	assert.Equal(t, "no_lookup", rec.Fallback)
	assert.Equal(t, "New York", rec.Location)

	out, err = run(t, cfgPath, "recommend", "--location", "Oslo")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(out, &rec))
	assert.Equal(t, "Oslo", rec.Location)

	out, err = run(t, cfgPath, "similar", "0", "-k", "3")
	require.NoError(t, err)
	var similar struct {
		Matches []wardrobe.Match `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(out, &similar))
	require.Len(t, similar.Matches, 1)
	assert.Equal(t, 1, similar.Matches[0].Item.ID)

	_, err = run(t, cfgPath, "remove", "0")
	require.NoError(t, err)
	_, err = run(t, cfgPath, "remove", "7")
	assert.ErrorIs(t, err, wardrobe.ErrInvalidItem)

	out, err = run(t, cfgPath, "list")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(out, &listed))
	require.Len(t, listed.Items, 1)
	assert.Equal(t, 0, listed.Items[0].ID)
	assert.Equal(t, "Jeans", listed.Items[0].Category)
}

func TestCLI_Errors(t *testing.T) {
	cfgPath := setup(t)

	_, err := run(t, cfgPath, "recommend")
	assert.ErrorContains(t, err, "no suitable clothes for mild weather")

	_, err = run(t, cfgPath, "add", filepath.Join(t.TempDir(), "missing.jpg"), "--category", "Shirt")
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = run(t, cfgPath, "remove", "abc")
	assert.Error(t, err)

	_, err = run(t, cfgPath, "similar", "0", "-k", "0")
	assert.Error(t, err)
}
