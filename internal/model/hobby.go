package model

// Hobby is a row of the `hobbies` table. Users pick any subset through
// the user_hobbies join table.
type Hobby struct {
	ID   uint64
	Name string
}
