package context

type Key string

const (
	Claims      Key = "claims"
	AccessState Key = "access_state"
	Params      Key = "params"
)
