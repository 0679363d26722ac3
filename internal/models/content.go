package models

import "time"

// Page layouts; one-image options use the first uploaded picture.
const (
	LayoutNoImage     = "no-img"
	LayoutOneImgTop   = "1-img-top"
	LayoutOneImgLeft  = "1-img-left"
	LayoutOneImgRight = "1-img-right"
	LayoutImgColLeft  = "img-col-left"
	LayoutImgColRight = "img-col-right"
)

const (
	MenuMain     = "main"
	MenuDropdown = "dropdown"
)

// Page is a CMS content page addressed by its normalised name.
type Page struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"uniqueIndex;not null" json:"name"`
	MenuName     string `json:"menu_name,omitempty"`
	MenuLocation string `gorm:"type:varchar(8);default:'dropdown'" json:"menu_location"`
	Heading      string `json:"heading,omitempty"`
	Layout       string `gorm:"type:varchar(15);default:'no-img'" json:"layout"`
	Content      string `gorm:"not null" json:"content"`

	// Restricted pages are only served to logged-in users.
	Restricted bool `gorm:"default:false" json:"restricted"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Pictures []Picture `gorm:"foreignKey:PageID" json:"pictures,omitempty"`
}

// Picture is an image attached to a Page; Key is the storage object name.
type Picture struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	PageID uint   `gorm:"not null" json:"page_id"`
	Key    string `gorm:"uniqueIndex;not null" json:"key"`
	Main   bool   `gorm:"default:false" json:"main"`
}

// Category groups gallery images.
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`

	Images []Image `gorm:"foreignKey:CategoryID" json:"images,omitempty"`
}

type Image struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	CategoryID uint   `gorm:"not null" json:"category_id"`
	Key        string `gorm:"uniqueIndex;not null" json:"key"`
	Caption    string `json:"caption,omitempty"`
}

// Review is a user testimonial with staff moderation. Edits keep the
// previous published text visible until the update is approved.
type Review struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          string    `gorm:"not null" json:"user_id"`
	UserDisplayName string    `json:"user_display_name"`
	SubmissionDate  time.Time `json:"submission_date"`
	Title           string    `json:"title,omitempty"`
	Review          string    `gorm:"not null" json:"review"`
	Rating          int       `gorm:"default:5" json:"rating"`
	Published       bool      `gorm:"default:false" json:"published"`

	PreviousReview  string     `json:"-"`
	PreviousRating  int        `gorm:"default:5" json:"-"`
	PreviousTitle   string     `json:"-"`
	Edited          bool       `gorm:"default:false" json:"edited"`
	UpdatePublished bool       `gorm:"default:false" json:"update_published"`
	EditedDate      *time.Time `json:"edited_date,omitempty"`
}

// Timetable day codes sort Monday first.
const (
	Monday    = "01MON"
	Tuesday   = "02TUE"
	Wednesday = "03WED"
	Thursday  = "04THU"
	Friday    = "05FRI"
	Saturday  = "06SAT"
	Sunday    = "07SUN"
)

var DayNames = map[string]string{
	Monday:    "Monday",
	Tuesday:   "Tuesday",
	Wednesday: "Wednesday",
	Thursday:  "Thursday",
	Friday:    "Friday",
	Saturday:  "Saturday",
	Sunday:    "Sunday",
}

type Location struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	ShortName string `gorm:"not null" json:"short_name"`
	FullName  string `json:"full_name"`
	Address   string `json:"address,omitempty"`
	MapURL    string `json:"map_url,omitempty"`
}

// WeeklySession is a recurring timetable slot, displayed on the timetable
// page and maintained via the studio-admin CSV upload.
type WeeklySession struct {
	ID              uint    `gorm:"primaryKey" json:"id"`
	Name            string  `gorm:"not null;uniqueIndex:idx_session_slot" json:"name"`
	Day             string  `gorm:"type:varchar(5);not null;uniqueIndex:idx_session_slot" json:"day"`
	Time            string  `gorm:"type:varchar(5);not null;uniqueIndex:idx_session_slot" json:"time"`
	Description     string  `json:"description,omitempty"`
	LocationID      *uint   `json:"location_id,omitempty"`
	MaxParticipants *int    `json:"max_participants,omitempty"`
	Cost            float64 `json:"cost"`
	Full            bool    `gorm:"default:false" json:"full"`
	BlockInfo       string  `json:"block_info,omitempty"`

	Location *Location `gorm:"foreignKey:LocationID" json:"location,omitempty"`
}
