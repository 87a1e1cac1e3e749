package prefilter

import "os"

func removeAndBlock(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.WriteFile(dir, []byte("blocked"), 0o644)
}
