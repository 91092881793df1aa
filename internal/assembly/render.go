package assembly

import (
	"bufio"
	"fmt"
	"io"
)

// FormatBlock renders one chapter as it appears in the artifact.
func FormatBlock(title, body string) string {
	return "\n\n" + title + "\n\n" + body + "\n"
}

// PlaceholderBody is the chapter text written in place of a unit that
// exhausted its attempts. A placeholder block ends with a blank line.
func PlaceholderBody(cause string) string {
	return "下载失败: " + cause + "\n"
}

// Header is the artifact preamble naming the novel and its author.
func Header(name, author string) string {
	return fmt.Sprintf("《%s》\n作者：%s\n\n", name, author)
}

// Render writes the header followed by blocks in the given order and
// returns the number of bytes written.
func Render(w io.Writer, name, author string, blocks []string) (int64, error) {
	bw := bufio.NewWriter(w)

	var total int64
	n, err := bw.WriteString(Header(name, author))
	total += int64(n)
	if err != nil {
		return total, fmt.Errorf("write header: %w", err)
	}

	for i, block := range blocks {
		n, err := bw.WriteString(block)
		total += int64(n)
		if err != nil {
			return total, fmt.Errorf("write block %d: %w", i, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return total, fmt.Errorf("flush artifact: %w", err)
	}
	return total, nil
}
