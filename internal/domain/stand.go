package domain

// Stand is a named taxi rank used as journey origin or destination.
type Stand struct {
	ID   StandID
	Name string
}
