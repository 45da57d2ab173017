package xml

// Interval tables for the non-ASCII NameStartChar/NameChar productions
// of the XML 1.0 Fifth Edition grammar (see charclass.go for the full
// productions). Entries must stay sorted by lo for the binary search in
// inIntervals to work.
//
// The tables transcribe the grammar's ranges exactly as the Fifth
// Edition lists them. The Fifth Edition deliberately made names
// permissive (each listed range is fully inclusive, unassigned code
// points and all), so no Unicode-database generation step is needed:
// the productions themselves are the complete definition.
var nameStartIntervals = []runeInterval{
	{0xC0, 0xD6},
	{0xD8, 0xF6},
	{0xF8, 0x2FF},
	{0x370, 0x37D},
	{0x37F, 0x1FFF},
	{0x200C, 0x200D},
	{0x2070, 0x218F},
	{0x2C00, 0x2FEF},
	{0x3001, 0xD7FF},
	{0xF900, 0xFDCF},
	{0xFDF0, 0xFFFD},
	{0x10000, 0xEFFFF},
}

// nameContinueExtraIntervals holds the NameChar ranges that are not
// already part of NameStartChar: combining diacritics and the
// undertie/character-tie punctuation pair.
var nameContinueExtraIntervals = []runeInterval{
	{0x0300, 0x036F},
	{0x203F, 0x2040},
}
