package parsing

// Pos represents a position in the input string.
type Pos struct {
	Offset int `json:"offset"`
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Segment is one slice of a line produced by Split.
type Segment struct {
	Text   string `json:"text"`
	Offset int    `json:"offset"` // byte offset of Text within the line
}
