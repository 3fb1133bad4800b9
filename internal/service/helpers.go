package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gorm.io/gorm"

	"github.com/leonfuss/mms-sub000/pkg/dates"
	apperr "github.com/leonfuss/mms-sub000/pkg/errors"
)

// ── 通用错误转换 ──

// storageErr 包装数据库错误
func storageErr(op string, err error) error {
	return apperr.Wrap(apperr.KindStorage, op, err)
}

// ioErr 包装文件系统错误
func ioErr(op string, err error) error {
	return apperr.Wrap(apperr.KindIO, op, err)
}

// notFoundOr 记录不存在时返回 sentinel（附带 key），否则按存储错误包装
func notFoundOr(err error, sentinel error, key, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", sentinel, key)
	}
	return storageErr(op, err)
}

// ── 目录创建守卫 ──

// dirGuard 记录本次新建的目录，事务失败时删除，已存在的目录从不删除
type dirGuard struct {
	created []string
}

// mkdir 等价于 mkdir -p，并记录最上层新建的祖先目录
func (g *dirGuard) mkdir(dir string) error {
	top := ""
	for p := filepath.Clean(dir); ; p = filepath.Dir(p) {
		if _, err := os.Stat(p); err == nil {
			break
		} else if !os.IsNotExist(err) {
			return err
		}
		top = p
		if parent := filepath.Dir(p); parent == p {
			break
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if top != "" {
		g.created = append(g.created, top)
	}
	return nil
}

// rollback 按创建的逆序删除
func (g *dirGuard) rollback() {
	for i := len(g.created) - 1; i >= 0; i-- {
		os.RemoveAll(g.created[i])
	}
	g.created = nil
}

// ── 输入解析 ──

func parseOptionalDate(field, s string) (*dates.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := dates.Parse(s)
	if err != nil {
		return nil, apperr.Validation(field, err.Error())
	}
	return &d, nil
}

func parseClock(field, s string) (dates.Clock, error) {
	c, err := dates.ParseClock(s)
	if err != nil {
		return dates.Clock{}, apperr.Validation(field, err.Error())
	}
	return c, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func idKey(id int64) string {
	return "#" + strconv.FormatInt(id, 10)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
