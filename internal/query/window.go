package query

import (
	"fmt"
	"strconv"
)

// Window 查询时间窗口（天）
type Window int

const (
	Window7  Window = 7
	Window30 Window = 30
	Window90 Window = 90

	// DefaultWindow 未指定时使用的窗口
	DefaultWindow = Window30
)

// Windows 所有合法窗口
var Windows = []Window{Window7, Window30, Window90}

// Valid 是否为合法窗口
func (w Window) Valid() bool {
	switch w {
	case Window7, Window30, Window90:
		return true
	}
	return false
}

// Days 窗口天数
func (w Window) Days() int {
	return int(w)
}

func (w Window) String() string {
	return strconv.Itoa(int(w))
}

// ParseWindow 解析窗口参数，空字符串返回默认窗口。
// 只接受 "7"、"30"、"90" 字面值，"07"、"+7" 等写法同样视为非法。
func ParseWindow(s string) (Window, error) {
	if s == "" {
		return DefaultWindow, nil
	}
	for _, w := range Windows {
		if s == w.String() {
			return w, nil
		}
	}
	return 0, fmt.Errorf("invalid window %q", s)
}
