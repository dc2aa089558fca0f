package record

// Comparable projects a volume to the integer used for every ordering and sum.
// The low-count sentinel and unknown values both count as zero.
func Comparable(v Volume) int64 {
	if n, ok := v.Int(); ok {
		return n
	}
	return 0
}

func ComparablePC(r MetricRecord) int64 { return Comparable(r.PCVolume) }

func ComparableMobile(r MetricRecord) int64 { return Comparable(r.MobileVolume) }

// TotalComparable is the comparable PC volume plus the comparable mobile volume.
func TotalComparable(r MetricRecord) int64 {
	return Comparable(r.PCVolume) + Comparable(r.MobileVolume)
}
