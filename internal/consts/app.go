package consts

const (
	ApplicationName    = "Simple Picture Database"
	ApplicationVersion = "1.0.0"
)
