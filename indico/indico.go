// Package indico talks to the Indico HTTP export API to retrieve the
// conference program and its material, see
// https://docs.getindico.io/en/stable/http-api/exporters/event/
package indico

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// RetrieveInfo downloads the JSON export for a conference and saves it
// verbatim. With detail=sessions the export groups contributions by
// session; the top-level contribution list only holds orphans.
func RetrieveInfo(url, path, detail string, overwrite bool) error {
	if _, err := os.Stat(path); err == nil && !overwrite {
		return nil
	}

	if detail == "" {
		detail = "sessions"
	}

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Get(fmt.Sprintf("%s?detail=%s&pretty=yes", url, detail))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("export request failed: %s", resp.Status)
	}

	var payload json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("invalid export payload: %w", err)
	}

	return os.WriteFile(path, payload, 0o644)
}

// ExportDate is the date representation of the export API.
type ExportDate struct {
	Date string `json:"date"`
	Time string `json:"time"`
	TZ   string `json:"tz"`
}

func (d ExportDate) Parse() (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04:05", d.Date+" "+d.Time, time.Local)
}

type Speaker struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Affiliation string `json:"affiliation"`
	FullName    string `json:"fullName"`
}

type Attachment struct {
	DownloadURL string `json:"download_url"`
	ModifiedDT  string `json:"modified_dt"`
}

type Folder struct {
	Attachments []Attachment `json:"attachments"`
}

type Contribution struct {
	ID         int       `json:"id"`
	DBID       int       `json:"db_id"`
	FriendlyID int       `json:"friendly_id"`
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	Speakers   []Speaker `json:"speakers"`
	Folders    []Folder  `json:"folders"`
}

type Session struct {
	ID            int            `json:"id"`
	Title         string         `json:"title"`
	StartDate     ExportDate     `json:"startDate"`
	EndDate       ExportDate     `json:"endDate"`
	URL           string         `json:"url"`
	Contributions []Contribution `json:"contributions"`
}

type exportResult struct {
	Sessions      []*Session     `json:"sessions"`
	Contributions []Contribution `json:"contributions"`
}

type export struct {
	Count   int            `json:"count"`
	Results []exportResult `json:"results"`
}
