package course

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/mo-amir99/coursehub-server-go/pkg/validation"
)

// ContentType names the kind of a curriculum item.
type ContentType string

const (
	ContentVideo          ContentType = "video"
	ContentText           ContentType = "text"
	ContentArticle        ContentType = "article"
	ContentQuiz           ContentType = "quiz"
	ContentAssignment     ContentType = "assignment"
	ContentCodingExercise ContentType = "coding_exercise"
)

var contentTypes = []ContentType{
	ContentVideo, ContentText, ContentArticle, ContentQuiz, ContentAssignment, ContentCodingExercise,
}

const (
	maxSections        = 100
	maxSectionContents = 200
	maxItemTitleLength = 80
	maxContentDuration = 24 * 60 * 60
)

// Section is an ordered group of content items.
type Section struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Order    int       `json:"order"`
	Contents []Content `json:"contents"`
}

// Content is a single lecture. Duration is in seconds. At most one payload is
// set and it must match ContentType.
type Content struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	ContentType ContentType `json:"contentType"`
	Duration    int         `json:"duration"`
	IsPreview   bool        `json:"isPreview"`
	IsFree      bool        `json:"isFree"`
	Order       int         `json:"order"`

	Video          *VideoPayload          `json:"video,omitempty"`
	Article        *ArticlePayload        `json:"article,omitempty"`
	Quiz           *QuizPayload           `json:"quiz,omitempty"`
	Assignment     *AssignmentPayload     `json:"assignment,omitempty"`
	CodingExercise *CodingExercisePayload `json:"codingExercise,omitempty"`
}

type VideoPayload struct {
	URL      string `json:"url"`
	Quality  string `json:"quality,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// ArticlePayload backs both text and article items. ReadTime is in minutes.
type ArticlePayload struct {
	Body     string `json:"body"`
	ReadTime int    `json:"readTime"`
}

type QuizPayload struct {
	PassingScore int            `json:"passingScore"`
	MaxAttempts  int            `json:"maxAttempts"`
	Questions    []QuizQuestion `json:"questions"`
}

type QuizQuestion struct {
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

type AssignmentPayload struct {
	Instructions string `json:"instructions"`
	MaxScore     int    `json:"maxScore"`
}

type CodingExercisePayload struct {
	Language    string `json:"language"`
	StarterCode string `json:"starterCode,omitempty"`
	Solution    string `json:"solution,omitempty"`
}

// stripPayload keeps the outline fields and drops everything a non-enrolled caller may not see.
func (c *Content) stripPayload() {
	c.Video = nil
	c.Article = nil
	c.Quiz = nil
	c.Assignment = nil
	c.CodingExercise = nil
}

// NormalizeCurriculum trims titles, assigns missing ids, rewrites order to the
// array index and validates every node.
func NormalizeCurriculum(sections []Section) ([]Section, validation.Errors) {
	var errs validation.Errors
	if len(sections) > maxSections {
		errs.Add("sections must contain at most %d entries", maxSections)
		return nil, errs
	}

	out := make([]Section, len(sections))
	seen := make(map[uuid.UUID]struct{})
	for i, s := range sections {
		prefix := fmt.Sprintf("sections[%d]", i)

		s.Title = strings.TrimSpace(s.Title)
		checkTitle(&errs, prefix, s.Title)
		s.ID = uniqueID(&errs, prefix, s.ID, seen)
		s.Order = i

		if len(s.Contents) > maxSectionContents {
			errs.Add("%s.contents must contain at most %d entries", prefix, maxSectionContents)
		}
		contents := make([]Content, len(s.Contents))
		for j, c := range s.Contents {
			itemPrefix := fmt.Sprintf("%s.contents[%d]", prefix, j)
			c.Title = strings.TrimSpace(c.Title)
			checkTitle(&errs, itemPrefix, c.Title)
			c.ID = uniqueID(&errs, itemPrefix, c.ID, seen)
			c.Order = j
			validateContent(&errs, itemPrefix, &c)
			contents[j] = c
		}
		s.Contents = contents
		out[i] = s
	}
	return out, errs
}

func checkTitle(errs *validation.Errors, prefix, title string) {
	if title == "" {
		errs.Add("%s.title is required", prefix)
	} else if !validation.MaxRunes(title, maxItemTitleLength) {
		errs.Add("%s.title must be at most %d characters", prefix, maxItemTitleLength)
	}
}

func uniqueID(errs *validation.Errors, prefix string, id uuid.UUID, seen map[uuid.UUID]struct{}) uuid.UUID {
	if id == uuid.Nil {
		id = uuid.New()
	}
	if _, dup := seen[id]; dup {
		errs.Add("%s.id is duplicated", prefix)
	}
	seen[id] = struct{}{}
	return id
}

func validateContent(errs *validation.Errors, prefix string, c *Content) {
	if !validContentType(c.ContentType) {
		errs.Add("%s.contentType must be one of: %s", prefix, joinContentTypes())
		return
	}
	if c.Duration < 0 {
		errs.Add("%s.duration must be greater than or equal to 0", prefix)
	} else if c.Duration > maxContentDuration {
		errs.Add("%s.duration must be at most %d seconds", prefix, maxContentDuration)
	}

	allowed := payloadField(c.ContentType)
	present := map[string]bool{
		"video":          c.Video != nil,
		"article":        c.Article != nil,
		"quiz":           c.Quiz != nil,
		"assignment":     c.Assignment != nil,
		"codingExercise": c.CodingExercise != nil,
	}
	for _, field := range []string{"video", "article", "quiz", "assignment", "codingExercise"} {
		if present[field] && field != allowed {
			errs.Add("%s.%s is not allowed for %s content", prefix, field, c.ContentType)
		}
	}

	switch {
	case c.Video != nil && allowed == "video":
		c.Video.URL = strings.TrimSpace(c.Video.URL)
		if c.Video.URL != "" {
			if u, err := url.ParseRequestURI(c.Video.URL); err != nil || u.Host == "" {
				errs.Add("%s.video.url must be a valid URL", prefix)
			}
		}
	case c.Article != nil && allowed == "article":
		if c.Article.ReadTime < 0 {
			errs.Add("%s.article.readTime must be greater than or equal to 0", prefix)
		}
	case c.Quiz != nil && allowed == "quiz":
		if c.Quiz.PassingScore < 0 || c.Quiz.PassingScore > 100 {
			errs.Add("%s.quiz.passingScore must be between 0 and 100", prefix)
		}
		if c.Quiz.MaxAttempts < 0 {
			errs.Add("%s.quiz.maxAttempts must be greater than or equal to 0", prefix)
		}
		for k, q := range c.Quiz.Questions {
			if strings.TrimSpace(q.Prompt) == "" {
				errs.Add("%s.quiz.questions[%d].prompt is required", prefix, k)
			}
			if len(q.Options) < 2 {
				errs.Add("%s.quiz.questions[%d].options must contain at least 2 entries", prefix, k)
			} else if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
				errs.Add("%s.quiz.questions[%d].correctIndex is out of range", prefix, k)
			}
		}
	case c.Assignment != nil && allowed == "assignment":
		if c.Assignment.MaxScore < 0 {
			errs.Add("%s.assignment.maxScore must be greater than or equal to 0", prefix)
		}
	case c.CodingExercise != nil && allowed == "codingExercise":
		if strings.TrimSpace(c.CodingExercise.Language) == "" {
			errs.Add("%s.codingExercise.language is required", prefix)
		}
	}
}

func payloadField(t ContentType) string {
	switch t {
	case ContentVideo:
		return "video"
	case ContentText, ContentArticle:
		return "article"
	case ContentQuiz:
		return "quiz"
	case ContentAssignment:
		return "assignment"
	case ContentCodingExercise:
		return "codingExercise"
	}
	return ""
}

func validContentType(t ContentType) bool {
	for _, ct := range contentTypes {
		if ct == t {
			return true
		}
	}
	return false
}

func joinContentTypes() string {
	names := make([]string, len(contentTypes))
	for i, ct := range contentTypes {
		names[i] = string(ct)
	}
	return strings.Join(names, ", ")
}

// Totals returns the number of content items and the sum of their durations.
func Totals(sections []Section) (lectures, duration int) {
	for _, s := range sections {
		lectures += len(s.Contents)
		for _, c := range s.Contents {
			duration += c.Duration
		}
	}
	return lectures, duration
}

// sectionsWithContent counts sections holding at least one item.
func sectionsWithContent(sections []Section) int {
	n := 0
	for _, s := range sections {
		if len(s.Contents) > 0 {
			n++
		}
	}
	return n
}
