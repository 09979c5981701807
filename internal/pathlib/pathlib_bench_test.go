package pathlib

import "testing"

func BenchmarkPathlib(b *testing.B) {
	given := "/docs/getting-started.html"

	b.Run("clean", func(b *testing.B) {
		b.ReportAllocs()
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			_, _ = Clean(given)
		}
	})
}
