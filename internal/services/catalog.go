package services

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

func Slugify(value string) string {
	lower := strings.ToLower(strings.TrimSpace(value))
	var b strings.Builder
	lastDash := false
	for _, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteRune('-')
			lastDash = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return uuid.NewString()
	}
	return slug
}

// ResolvePageSlug derives a unique slug from the title, suffixing a counter
// when the base form is taken.
func ResolvePageSlug(db *sqlx.DB, title string) (string, error) {
	base := Slugify(title)
	candidate := base
	counter := 2
	for {
		var exists bool
		err := db.Get(&exists, db.Rebind(`SELECT EXISTS(SELECT 1 FROM pages WHERE slug = ?)`), candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(counter)
		counter++
	}
}

func NormalizeRequired(value, message string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", ErrBadRequest(message)
	}
	return trimmed, nil
}

func CleanSearchTerm(term string) string {
	re := regexp.MustCompile(`\s+`)
	cleaned := strings.TrimSpace(term)
	cleaned = re.ReplaceAllString(cleaned, " ")
	return cleaned
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikeContains builds a contains pattern for a search term with LIKE
// metacharacters matched literally. Queries using it must carry ESCAPE '\'.
func LikeContains(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

// CategoryNameTaken reports whether another category already uses the name,
// compared case-insensitively. excludeID skips the category being renamed.
func CategoryNameTaken(db *sqlx.DB, name, excludeID string) (bool, error) {
	var taken bool
	err := db.Get(&taken, db.Rebind(`
SELECT EXISTS(SELECT 1 FROM categories WHERE lower(name) = lower(?) AND id <> ?)
`), strings.TrimSpace(name), excludeID)
	return taken, err
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func ValidEmail(value string) bool {
	return emailPattern.MatchString(strings.TrimSpace(value))
}

var blockTypes = map[string]bool{
	"TEXT":  true,
	"LINK":  true,
	"IMAGE": true,
	"VIDEO": true,
}

// Block is one unit of static page content.
type Block struct {
	Type    string  `json:"type"`
	Text    *string `json:"text,omitempty"`
	URL     *string `json:"url,omitempty"`
	AssetID *string `json:"assetId,omitempty"`
	Caption *string `json:"caption,omitempty"`
	Title   *string `json:"title,omitempty"`
}

// ValidateBlocks cleans a page content payload: unknown block types are
// dropped, media blocks must reference an uploaded asset.
func ValidateBlocks(raw json.RawMessage) ([]Block, error) {
	if len(raw) == 0 {
		return []Block{}, nil
	}
	var blocks []Block
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return nil, ErrBadRequest("Invalid content payload")
	}
	cleaned := make([]Block, 0, len(blocks))
	for _, block := range blocks {
		blockType := strings.ToUpper(strings.TrimSpace(block.Type))
		if !blockTypes[blockType] {
			continue
		}
		switch blockType {
		case "TEXT":
			if block.Text != nil {
				text := strings.TrimSpace(*block.Text)
				if text != "" {
					cleaned = append(cleaned, Block{Type: "TEXT", Text: &text, Title: block.Title})
				}
			}
		case "LINK":
			if block.URL != nil {
				url := strings.TrimSpace(*block.URL)
				if url != "" {
					title := block.Title
					if title == nil {
						fallback := "Link"
						title = &fallback
					}
					cleaned = append(cleaned, Block{Type: "LINK", URL: &url, Title: title})
				}
			}
		case "IMAGE", "VIDEO":
			if block.AssetID == nil || strings.TrimSpace(*block.AssetID) == "" {
				return nil, ErrBadRequest("Media blocks require an uploaded file")
			}
			asset := strings.TrimSpace(*block.AssetID)
			cleaned = append(cleaned, Block{Type: blockType, AssetID: &asset, Caption: block.Caption, Title: block.Title})
		}
	}
	return cleaned, nil
}
