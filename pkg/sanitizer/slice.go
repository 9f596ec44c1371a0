package sanitizer

func NormalizeEquipment(items []string) []string {
	return SanitizeSlice(items, SanitizeEquipment)
}
