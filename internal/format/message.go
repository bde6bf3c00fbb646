package format

import (
	"strings"
	"unicode/utf16"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ParseResult contains plain text and message entities
type ParseResult struct {
	Text     string
	Entities []tgbotapi.MessageEntity
}

// UTF16Len returns the length of s in UTF-16 code units.
// Telegram entity offsets and lengths are measured in these units.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

// Builder assembles message text while tracking entity offsets.
type Builder struct {
	sb       strings.Builder
	offset   int
	entities []tgbotapi.MessageEntity
}

func (b *Builder) Text(s string) *Builder {
	b.sb.WriteString(s)
	b.offset += UTF16Len(s)
	return b
}

func (b *Builder) Bold(s string) *Builder {
	return b.entity("bold", s)
}

func (b *Builder) Italic(s string) *Builder {
	return b.entity("italic", s)
}

func (b *Builder) Code(s string) *Builder {
	return b.entity("code", s)
}

func (b *Builder) entity(kind, s string) *Builder {
	if s == "" {
		return b
	}
	l := UTF16Len(s)
	b.entities = append(b.entities, tgbotapi.MessageEntity{
		Type:   kind,
		Offset: b.offset,
		Length: l,
	})
	b.sb.WriteString(s)
	b.offset += l
	return b
}

func (b *Builder) Result() ParseResult {
	return ParseResult{
		Text:     b.sb.String(),
		Entities: b.entities,
	}
}

// Message builds a Telegram text message with entities attached.
func (r ParseResult) Message(chatID int64) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, r.Text)
	msg.Entities = r.Entities
	return msg
}
