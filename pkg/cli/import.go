package cli

import (
	"os"
	"time"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// meetingFile is the YAML layout accepted by "meeting import"
type meetingFile struct {
	Meetings []meetingEntry `yaml:"meetings"`
}

type meetingEntry struct {
	Title       string    `yaml:"title"`
	Description string    `yaml:"description"`
	Start       time.Time `yaml:"start"`
	End         time.Time `yaml:"end"`
	Organizer   string    `yaml:"organizer"`
	Attendees   []string  `yaml:"attendees"`
	Location    string    `yaml:"location"`
}

// loadMeetingFile parses a meeting import file
func loadMeetingFile(filePath string) ([]*model.Meeting, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read meeting file", goerr.V("file", filePath))
	}
	return parseMeetingFile(content)
}

func parseMeetingFile(content []byte) ([]*model.Meeting, error) {
	var file meetingFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse meeting file")
	}
	if len(file.Meetings) == 0 {
		return nil, goerr.New("meeting file has no meetings")
	}

	meetings := make([]*model.Meeting, 0, len(file.Meetings))
	for _, e := range file.Meetings {
		meetings = append(meetings, &model.Meeting{
			Title:       e.Title,
			Description: e.Description,
			StartTime:   e.Start,
			EndTime:     e.End,
			Organizer:   e.Organizer,
			Attendees:   e.Attendees,
			Location:    e.Location,
		})
	}
	return meetings, nil
}
