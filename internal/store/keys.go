package store

// Keys shared by every component reading from or writing to the store.
const (
	KeyUser               = "user"
	KeyOnlineStatus       = "onlineStatus"
	KeyLoggedInUserID     = "loggedInUserId"
	KeyUsers              = "users"
	KeyUserProfiles       = "userProfiles"
	KeyTheme              = "theme"
	KeyFontSize           = "fontSize"
	KeyLanguagePreference = "languagePreference"
)
