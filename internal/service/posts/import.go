package posts

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Skotchmaster/blog_api/internal/dispatch"
	"github.com/Skotchmaster/blog_api/internal/logging"
)

type ImportPostsCommand struct {
	CSVURL      string
	RequestedBy string
}

type ImportReport struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ImportFromCSV fetches a CSV of posts (columns title, friendlyUrl, content)
// and creates each row through the regular Create path. A row that fails a
// business rule is logged and skipped; the import carries on.
func (s *Service) ImportFromCSV(ctx context.Context, cmd ImportPostsCommand) (dispatch.Result[ImportReport], error) {
	l := logging.FromContext(ctx).With("svc", "posts.import", "csv_url", cmd.CSVURL)

	if strings.TrimSpace(cmd.CSVURL) == "" {
		return dispatch.Failure[ImportReport](dispatch.StatusBadRequest, "CSV URL is required."), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cmd.CSVURL, nil)
	if err != nil {
		return dispatch.Failure[ImportReport](dispatch.StatusBadRequest, fmt.Sprintf("Invalid CSV URL: %v.", err)), nil
	}
	resp, err := s.httpClient().Do(req)
	if err != nil {
		l.Warn("import_failed", "reason", "fetch_error", "error", err)
		return dispatch.Failure[ImportReport](dispatch.StatusBadRequest, fmt.Sprintf("Failed to fetch CSV from %s.", cmd.CSVURL)), nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		l.Warn("import_failed", "reason", "bad_status", "status", resp.StatusCode)
		return dispatch.Failure[ImportReport](dispatch.StatusBadRequest,
			fmt.Sprintf("Failed to fetch CSV from %s, status code: %d.", cmd.CSVURL, resp.StatusCode)), nil
	}

	reader := csv.NewReader(resp.Body)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return dispatch.Failure[ImportReport](dispatch.StatusBadRequest, "CSV is empty or malformed."), nil
	}
	cols := columnIndexes(header)
	if cols.title < 0 || cols.friendlyURL < 0 || cols.content < 0 {
		return dispatch.Failure[ImportReport](dispatch.StatusBadRequest,
			"CSV header must contain title, friendlyUrl and content columns."), nil
	}

	report := ImportReport{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			l.Warn("import_row_skipped", "reason", "parse_error", "error", err)
			report.Skipped++
			continue
		}

		create := CreatePostCommand{
			Title:       field(record, cols.title),
			FriendlyURL: field(record, cols.friendlyURL),
			Content:     field(record, cols.content),
			CreatedBy:   cmd.RequestedBy,
		}
		res, err := s.Create(ctx, create)
		if err != nil {
			return dispatch.Result[ImportReport]{}, err
		}
		if !res.OK {
			l.Warn("import_row_skipped", "title", create.Title, "reason", res.ErrMessage)
			report.Skipped++
			continue
		}
		report.Imported++
	}

	l.Info("import_complete", "imported", report.Imported, "skipped", report.Skipped)
	return dispatch.Success(report), nil
}

type csvColumns struct {
	title       int
	friendlyURL int
	content     int
}

func columnIndexes(header []string) csvColumns {
	cols := csvColumns{title: -1, friendlyURL: -1, content: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "title":
			cols.title = i
		case "friendlyurl", "friendly_url":
			cols.friendlyURL = i
		case "content":
			cols.content = i
		}
	}
	return cols
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func (s *Service) httpClient() *http.Client {
	if s.HTTP != nil {
		return s.HTTP
	}
	return http.DefaultClient
}
