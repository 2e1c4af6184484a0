package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmailFormat(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		expected error
	}{
		{"Valid email", "student@mit.edu", nil},
		{"Valid email with subdomain", "user@cs.ox.ac.uk", nil},
		{"Valid email with plus", "user+tag@uni.edu", nil},
		{"Valid email with surrounding spaces", "  user@uni.edu ", nil},
		{"Invalid email - no @", "testexample.com", ErrInvalidEmail},
		{"Invalid email - no domain", "test@", ErrInvalidEmail},
		{"Invalid email - no local part", "@example.com", ErrInvalidEmail},
		{"Invalid email - display name", "Bob <bob@uni.edu>", ErrInvalidEmail},
		{"Invalid email - empty", "", ErrInvalidEmail},
		{"Invalid email - too long", strings.Repeat("a", 250) + "@uni.edu", ErrEmailTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateEmailFormat(tt.email))
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		expected error
	}{
		{"Valid password", "Password123!", nil},
		{"Valid minimum length", "12345678", nil},
		{"Invalid - too short", "Pass1!", ErrPasswordTooShort},
		{"Invalid - empty", "", ErrPasswordTooShort},
		{"Invalid - too long", strings.Repeat("x", 129), ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidatePassword(tt.password))
		})
	}
}

func TestValidateMessageContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected error
	}{
		{"Valid message", "hi there", nil},
		{"Valid max length", strings.Repeat("字", MaxMessageLength), nil},
		{"Invalid - empty", "", ErrEmptyMessage},
		{"Invalid - whitespace", "  \n\t", ErrEmptyMessage},
		{"Invalid - too long", strings.Repeat("a", MaxMessageLength+1), ErrMessageTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateMessageContent(tt.content))
		})
	}
}

func TestValidateBirthDate(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		birth    time.Time
		expected error
	}{
		{"Exactly 18 today", time.Date(2007, 6, 15, 0, 0, 0, 0, time.UTC), nil},
		{"Well over 18", time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), nil},
		{"One day short of 18", time.Date(2007, 6, 16, 0, 0, 0, 0, time.UTC), ErrUnderage},
		{"Born in the future", now.AddDate(1, 0, 0), ErrUnderage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateBirthDate(tt.birth, now))
		})
	}
}

func TestProfileValidate(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	birth := time.Date(2003, 2, 1, 0, 0, 0, 0, time.UTC)
	valid := func() Profile {
		return Profile{
			DisplayName: "Ada",
			BirthDate:   &birth,
			Gender:      GenderFemale,
			Photos:      []string{"https://cdn/p1.jpg"},
		}
	}

	tests := []struct {
		name     string
		mutate   func(p *Profile)
		expected error
	}{
		{"Valid profile", func(p *Profile) {}, nil},
		{"Missing display name", func(p *Profile) { p.DisplayName = " " }, ErrDisplayNameRequired},
		{"Invalid gender", func(p *Profile) { p.Gender = "robot" }, ErrInvalidGender},
		{"Invalid looking for", func(p *Profile) { p.LookingForGender = []Gender{"robot"} }, ErrInvalidGender},
		{"Invalid goal", func(p *Profile) { p.RelationshipGoal = "forever" }, ErrInvalidGoal},
		{"Too many photos", func(p *Profile) { p.Photos = make([]string, MaxPhotos+1) }, ErrTooManyPhotos},
		{"Too many interests", func(p *Profile) { p.Interests = make([]string, MaxInterests+1) }, ErrTooManyInterests},
		{"Bio too long", func(p *Profile) { p.Bio = strings.Repeat("b", MaxBioLength+1) }, ErrBioTooLong},
		{"Year of study out of range", func(p *Profile) { p.YearOfStudy = 42 }, ErrInvalidYearOfStudy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(&p)
			assert.Equal(t, tt.expected, p.Validate(now))
		})
	}
}

func TestProfileCheckComplete(t *testing.T) {
	birth := time.Date(2003, 2, 1, 0, 0, 0, 0, time.UTC)
	p := Profile{DisplayName: "Ada", BirthDate: &birth, Gender: GenderFemale}
	assert.False(t, p.CheckComplete())

	p.Photos = []string{"https://cdn/p1.jpg"}
	assert.True(t, p.CheckComplete())
	assert.True(t, p.IsComplete)
}

func TestNormalizeInterests(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{"Trims and drops empty", []string{" hiking ", "", "   "}, []string{"hiking"}},
		{"Case-insensitive dedup keeps first", []string{"Hiking", "hiking", "HIKING"}, []string{"Hiking"}},
		{"Fullwidth folded by NFKC", []string{"Ｃｏｄｉｎｇ", "coding"}, []string{"Coding"}},
		{"Order preserved", []string{"music", "art", "Music"}, []string{"music", "art"}},
		{"Nil input", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeInterests(tt.input))
		})
	}
}

func TestMessageRequestStatusIsTerminal(t *testing.T) {
	assert.False(t, RequestPending.IsTerminal())
	assert.True(t, RequestAccepted.IsTerminal())
	assert.True(t, RequestRejected.IsTerminal())
}

func TestBlockedUserActiveAt(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	assert.True(t, (&BlockedUser{}).ActiveAt(now))
	assert.True(t, (&BlockedUser{ExpiresAt: &future}).ActiveAt(now))
	assert.False(t, (&BlockedUser{ExpiresAt: &past}).ActiveAt(now))
}

func TestOrderedPair(t *testing.T) {
	a, b := OrderedPair("zed", "amy")
	assert.Equal(t, "amy", a)
	assert.Equal(t, "zed", b)

	c := Conversation{User1ID: a, User2ID: b}
	assert.True(t, c.HasParticipant("zed"))
	assert.False(t, c.HasParticipant("bob"))
	assert.Equal(t, "amy", c.OtherParticipant("zed"))
}
