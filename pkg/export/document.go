package export

// Pair is one labelled value inside a section.
type Pair struct {
	Label string
	Value string
}

// Section groups pairs under a heading.
type Section struct {
	Heading string
	Pairs   []Pair
}

// Document is the exporter input: a title plus ordered sections.
type Document struct {
	Title    string
	Subtitle string
	Sections []Section
}
