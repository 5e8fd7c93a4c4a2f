package utils

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

func TestCreateZip(t *testing.T) {
	entries := []FileEntry{
		{Name: "game.json", Data: []byte(`{"id":1}`)},
		{Name: "scores.json", Data: []byte(`[]`)},
	}

	data, err := CreateZip(entries)
	if err != nil {
		t.Fatalf("CreateZip 报错: %v", err)
	}

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("打开ZIP失败: %v", err)
	}

	if len(reader.File) != 2 {
		t.Fatalf("条目数 = %d, 期望 2", len(reader.File))
	}

	for i, entry := range entries {
		f := reader.File[i]
		if f.Name != entry.Name {
			t.Errorf("条目 %d 名称 = %s, 期望 %s", i, f.Name, entry.Name)
		}

		rc, err := f.Open()
		if err != nil {
			t.Fatalf("打开条目失败: %v", err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("读取条目失败: %v", err)
		}
		if !bytes.Equal(content, entry.Data) {
			t.Errorf("条目 %s 内容不一致", f.Name)
		}
	}
}

func TestCreateZipEmpty(t *testing.T) {
	data, err := CreateZip(nil)
	if err != nil {
		t.Fatalf("CreateZip 报错: %v", err)
	}

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("打开ZIP失败: %v", err)
	}
	if len(reader.File) != 0 {
		t.Errorf("空输入应生成空ZIP, 实际 %d 条目", len(reader.File))
	}
}
