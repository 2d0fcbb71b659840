package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"notice-watcher/pkg/models"
	"notice-watcher/pkg/utils"
)

// FeedLine is one JSONL record in the combined feed consumed by the
// indexing stage.
type FeedLine struct {
	ID          string `json:"id"`
	Content     string `json:"content"`
	Source      string `json:"source"`
	URL         string `json:"url"`
	Date        string `json:"date"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CombineStats summarizes one combiner invocation.
type CombineStats struct {
	Files  int // JSON files read
	Lines  int // Feed lines written
	Errors int // Files skipped because they could not be decoded
}

// CombineJSONL walks inDir recursively, reads every .json file (a single
// cleaned document or an array of them), and writes one compact feed
// line per document to outPath. Files that fail to decode are skipped
// and counted, not fatal. Files are visited in lexical path order so
// the output is deterministic.
func CombineJSONL(inDir, outPath, source string, log *logrus.Logger) (CombineStats, error) {
	var stats CombineStats

	var paths []string
	err := filepath.WalkDir(inDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".json") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("%w: walking %s: %v", utils.ErrFilesystem, inDir, err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return stats, fmt.Errorf("%w: creating output dir: %v", utils.ErrFilesystem, err)
	}
	out, err := os.Create(outPath)
	if err != nil {
		return stats, fmt.Errorf("%w: creating %s: %v", utils.ErrFilesystem, outPath, err)
	}
	defer out.Close()

	enc := json.NewEncoder(out)
	log.WithFields(logrus.Fields{"in_dir": inDir, "files": len(paths), "out": outPath}).Info("Combining documents into JSONL feed")

	for _, path := range paths {
		docs, err := loadDocuments(path)
		if err != nil {
			stats.Errors++
			log.WithError(err).WithField("file", path).Warn("Skipping undecodable document file")
			continue
		}
		stats.Files++

		for _, doc := range docs {
			content := doc.Corpus
			if content == "" {
				content = doc.Description
			}
			line := FeedLine{
				ID:          doc.ID,
				Content:     content,
				Source:      source,
				URL:         doc.DetailURL,
				Date:        doc.Date,
				Title:       doc.Title,
				Description: doc.Description,
			}
			if err := enc.Encode(&line); err != nil {
				return stats, fmt.Errorf("%w: writing feed line for %s: %v", utils.ErrFilesystem, doc.ID, err)
			}
			stats.Lines++
		}
	}

	log.WithFields(logrus.Fields{"files": stats.Files, "lines": stats.Lines, "errors": stats.Errors}).
		Info("JSONL feed written")
	return stats, nil
}

// loadDocuments decodes path as either one cleaned document or an array
// of them.
func loadDocuments(path string) ([]models.CleanedDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var docs []models.CleanedDocument
		if err := json.Unmarshal(raw, &docs); err != nil {
			return nil, err
		}
		return docs, nil
	}

	var doc models.CleanedDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return []models.CleanedDocument{doc}, nil
}
