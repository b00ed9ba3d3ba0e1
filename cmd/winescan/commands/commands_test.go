package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"winescan-app/internal/modules/scan/domain"
	"winescan-app/internal/modules/scan/domain/service"
)

// execute ルートコマンドを実行し標準出力を返す
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--no-color", "--no-redis", "--no-mysql"}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func TestMetersCommand(t *testing.T) {
	tests := []struct {
		name    string
		stdin   string
		args    []string
		wantErr bool
	}{
		{
			name: "正常系: 引数のテキスト",
			args: []string{"meters", "Fyllig", "och", "kraftig", "med", "mörka", "bär"},
		},
		{
			name:  "正常系: 標準入力",
			stdin: "Frisk och syrlig med citrus",
			args:  []string{"meters"},
		},
		{
			name:    "異常系: 空の入力",
			stdin:   "   ",
			args:    []string{"meters"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.stdin, tt.args...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out, domain.MeterSotma)
			assert.Contains(t, out, domain.MeterFruktsyra)
		})
	}
}

func TestMetersCommand_JSON(t *testing.T) {
	text := "Fyllig och kraftig med mörka bär"

	out, err := execute(t, "", "meters", "--json", text)
	require.NoError(t, err)

	var got domain.TasteProfile
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, service.DeriveMeters(text), got)
}

func TestMetersCommand_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("Söt och fruktig"), 0644))

	out, err := execute(t, "", "meters", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, domain.MeterFruktighet)
}

func TestHashCommand(t *testing.T) {
	imagePath := filepath.Join(t.TempDir(), "label.jpg")
	imageData := []byte("not really a jpeg")
	require.NoError(t, os.WriteFile(imagePath, imageData, 0644))

	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{
			name: "正常系: テキストから",
			args: []string{"hash", "--text", "Château Margaux 2015"},
			want: service.LabelHash(service.NormalizeOCRText("Château Margaux 2015"), nil),
		},
		{
			name: "正常系: 画像から",
			args: []string{"hash", imagePath},
			want: service.HashBytes(imageData),
		},
		{
			name: "正常系: テキストが画像より優先",
			args: []string{"hash", "--text", "Barolo", imagePath},
			want: service.LabelHash(service.NormalizeOCRText("Barolo"), imageData),
		},
		{
			name:    "異常系: 入力なし",
			args:    []string{"hash"},
			wantErr: true,
		},
		{
			name:    "異常系: 存在しない画像",
			args:    []string{"hash", filepath.Join(t.TempDir(), "missing.jpg")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "", tt.args...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, strings.TrimSpace(out))
			assert.Len(t, strings.TrimSpace(out), service.LabelHashLength)
		})
	}
}

func TestScanCommand_InvalidInput(t *testing.T) {
	emptyPath := filepath.Join(t.TempDir(), "empty.jpg")
	require.NoError(t, os.WriteFile(emptyPath, nil, 0644))

	tests := []struct {
		name string
		args []string
	}{
		{
			name: "異常系: 引数なし",
			args: []string{"scan"},
		},
		{
			name: "異常系: 存在しないファイル",
			args: []string{"scan", filepath.Join(t.TempDir(), "missing.jpg")},
		},
		{
			name: "異常系: 空のファイル",
			args: []string{"scan", emptyPath},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "", tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestRootCommand_Version(t *testing.T) {
	out, err := execute(t, "", "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "winescan")
}
