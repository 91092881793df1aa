package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/veranemoloko/novel-downloader/internal/domain"
)

const divider = "=================================================="

type novelService interface {
	Search(ctx context.Context, keyword string) ([]domain.Novel, error)
	Download(ctx context.Context, novel domain.Novel, out io.Writer) (domain.Outcome, error)
}

// lines delivers input lines on a channel so prompts can also watch ctx.
// The reader goroutine stops once ctx is done.
func lines(ctx context.Context, in io.Reader) <-chan string {
	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case ch <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

func prompt(ctx context.Context, out io.Writer, input <-chan string, label string) (string, bool) {
	fmt.Fprint(out, label)
	select {
	case <-ctx.Done():
		return "", false
	case line, ok := <-input:
		if !ok {
			return "", false
		}
		return strings.TrimSpace(line), true
	}
}

// runMenu is the interactive search, pick and download loop. An empty
// keyword, end of input or an interrupt ends it.
func runMenu(ctx context.Context, svc novelService, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	input := lines(ctx, in)
	fmt.Fprintln(out, "欢迎使用笔趣阁小说下载器")

	for {
		fmt.Fprintln(out, divider)
		fmt.Fprintln(out, "操作说明:")
		fmt.Fprintln(out, "1. 输入小说名称搜索")
		fmt.Fprintln(out, "2. 直接回车退出程序")
		fmt.Fprintln(out, divider)

		keyword, ok := prompt(ctx, out, input, "请输入笔趣阁小说名: ")
		if !ok {
			fmt.Fprintln(out, "\n程序已终止")
			return nil
		}
		if keyword == "" {
			fmt.Fprintln(out, "感谢使用，再见！")
			return nil
		}

		novels, err := svc.Search(ctx, keyword)
		if err != nil {
			fmt.Fprintf(out, "搜索失败: %v\n", err)
			continue
		}
		if len(novels) == 0 {
			fmt.Fprintln(out, "未找到相关小说，请重试...")
			continue
		}

		printResults(out, novels)

		for {
			choice, ok := prompt(ctx, out, input, "请选择要下载的小说编号(直接回车返回搜索): ")
			if !ok {
				fmt.Fprintln(out, "\n程序已终止")
				return nil
			}
			if choice == "" {
				break
			}

			num, err := strconv.Atoi(choice)
			if err != nil {
				fmt.Fprintln(out, "请输入数字!")
				continue
			}
			if num < 1 || num > len(novels) {
				fmt.Fprintln(out, "请输入有效的序号!")
				continue
			}

			if _, err := svc.Download(ctx, novels[num-1], out); err != nil {
				return err
			}
			if ctx.Err() != nil {
				return nil
			}
			break
		}
	}
}

func printResults(out io.Writer, novels []domain.Novel) {
	if len(novels) == 0 {
		fmt.Fprintln(out, "未找到相关小说")
		return
	}
	fmt.Fprintln(out, "\n搜索结果:")
	fmt.Fprintln(out, divider)
	for i, n := range novels {
		fmt.Fprintf(out, "%d. 《%s》 作者：%s\n", i+1, n.Name, n.Author)
	}
	fmt.Fprintln(out, divider)
}
