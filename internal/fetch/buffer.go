package fetch

// Copy buffer sizing, keyed to the expected artifact size. Small
// bottles do not need a megabyte of buffer; large casks should not
// crawl through 32kB reads.
const (
	minCopyBuffer     = 64 * 1024
	defaultCopyBuffer = 256 * 1024
	maxCopyBuffer     = 1024 * 1024

	smallArtifact  = 10 * 1024 * 1024
	mediumArtifact = 100 * 1024 * 1024
)

// copyBufferSize picks the buffer for one download. total is the
// reported content length; zero or negative means unknown.
func copyBufferSize(total int64) int {
	switch {
	case total <= 0:
		return defaultCopyBuffer
	case total < smallArtifact:
		return minCopyBuffer
	case total < mediumArtifact:
		return defaultCopyBuffer
	default:
		return maxCopyBuffer
	}
}
