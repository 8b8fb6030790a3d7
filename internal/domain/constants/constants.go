package constants

const (
	User  = "user"
	Admin = "admin"
)
