package authoring

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestFixDir(t *testing.T) {
	dir := t.TempDir()
	wrapped := filepath.Join(dir, "anatomy", "bones.json")
	bare := filepath.Join(dir, "soap.JSON")
	clean := filepath.Join(dir, "clean.json")
	broken := filepath.Join(dir, "broken.json")

	writeFile(t, wrapped, `{"topic":"anatomy_basics","tags":["bone_structure",3],"questions":[{"id":"bones_1","topic":"anatomy_basics","correct":1,"note":"a<b"}]}`)
	writeFile(t, bare, `[{"id":"soap_1","topic":"soap","tags":["charting"]}]`)
	writeFile(t, clean, `[{"id":"Ethics 1","topic":"Ethics"}]`)
	writeFile(t, broken, `{not json`)
	writeFile(t, filepath.Join(dir, "readme.txt"), "ignored")

	report, err := FixDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Scanned)
	assert.ElementsMatch(t, []string{wrapped, bare}, report.Updated)
	assert.Equal(t, []string{broken}, report.Failed)

	raw, err := os.ReadFile(wrapped)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  \"questions\"")
	assert.Contains(t, string(raw), `"a<b"`)

	var doc struct {
		Topic     string `json:"topic"`
		Tags      []any  `json:"tags"`
		Questions []struct {
			ID      string `json:"id"`
			Topic   string `json:"topic"`
			Correct int    `json:"correct"`
			Note    string `json:"note"`
		} `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "Anatomy Basics", doc.Topic)
	assert.Equal(t, []any{"Bone Structure", float64(3)}, doc.Tags)
	assert.Equal(t, "Bones 1", doc.Questions[0].ID)
	assert.Equal(t, 1, doc.Questions[0].Correct)
	assert.Equal(t, "a<b", doc.Questions[0].Note)

	raw, err = os.ReadFile(bare)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"SOAP 1"`)
	assert.Contains(t, string(raw), `"topic": "SOAP"`)
	assert.Contains(t, string(raw), `"Charting"`)

	raw, err = os.ReadFile(clean)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"Ethics 1","topic":"Ethics"}]`, string(raw), "unchanged files are not rewritten")
}

func TestGenerateManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "anatomy", "muscles.json"), "[]")
	writeFile(t, filepath.Join(dir, "ethics.json"), "[]")
	writeFile(t, filepath.Join(dir, ManifestName), "[]")
	writeFile(t, filepath.Join(dir, "notes.md"), "")

	entries, err := WriteManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"questions/anatomy/muscles.json", "questions/ethics.json"}, entries)

	var onDisk []string
	raw, err := os.ReadFile(filepath.Join(dir, ManifestName))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	assert.Equal(t, entries, onDisk)
}

func TestImportQuestionsFromExcel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bank.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"id", "topic", "question", "a", "b", "c", "d", "correct", "explanation", "difficulty"},
		{"", "kinesiology", "Which muscle abducts the arm?", "Deltoid", "Biceps", "", "", "A", "Deltoid abducts.", "easy"},
		{"k_2", "kinesiology", "Prime mover of hip extension?", "Psoas", "Gluteus maximus", "Sartorius", "", "2", "", ""},
		{"k_3", "kinesiology", "No answers", "Only one", "", "", "", "A", "", ""},
		{"k_4", "kinesiology", "Bad key", "Yes", "No", "", "", "E", "", ""},
		{},
		{"k_2", "kinesiology", "Duplicate id", "Yes", "No", "", "", "B", "", "brutal"},
	}
	for i, row := range rows {
		addr, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, addr, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	config := DefaultImportConfig()
	config.FilePath = path
	result, err := ImportQuestions(config)
	require.NoError(t, err)

	assert.Equal(t, 5, result.TotalProcessed)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 3, result.Skipped)
	assert.Len(t, result.Errors, 3)

	first := result.Questions[0]
	assert.Equal(t, "Kinesiology 2", first.ID)
	assert.Equal(t, "Kinesiology", first.Topic)
	assert.Equal(t, []string{"Deltoid", "Biceps"}, first.Answers)
	assert.Equal(t, 0, first.Correct)
	assert.EqualValues(t, "easy", first.Difficulty)

	second := result.Questions[1]
	assert.Equal(t, "K 2", second.ID)
	assert.Equal(t, 1, second.Correct)

	out := filepath.Join(dir, "questions", "kinesiology.json")
	require.NoError(t, WriteQuestions(out, result.Questions))
	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "stats")
	assert.Contains(t, string(raw), `"correct": 1`)
}

func TestImportQuestionsFromCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.csv")
	writeFile(t, path, "id,topic,question,a,b,c,d,correct\nq1,ethics,Is scope of practice binding?,Yes,No,,,a\n")

	config := DefaultImportConfig()
	config.FilePath = path
	result, err := ImportQuestions(config)
	require.NoError(t, err)
	require.Equal(t, 1, result.Created)
	assert.Equal(t, "Q1", result.Questions[0].ID)
	assert.Equal(t, "Ethics", result.Questions[0].Topic)
}

func TestParseCorrect(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"B", 1, false},
		{" c ", 2, false},
		{"1", 0, false},
		{"0", 0, true},
		{"5", 0, true},
		{"AB", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := parseCorrect(tt.raw, 4)
		if (err != nil) != tt.wantErr || (!tt.wantErr && got != tt.want) {
			t.Errorf("parseCorrect(%q) = %d, %v", tt.raw, got, err)
		}
	}
}
