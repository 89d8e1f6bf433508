package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImports(t *testing.T) {
	tests := []struct {
		name string
		path string
		lang string
		src  string
		want []string
	}{
		{
			name: "python",
			path: "app/main.py",
			lang: "python",
			src: `import os
import app.core.config as cfg, json
from app.models import User
from . import views, forms as f
from ..shared import helpers
from .. import *

def lazy():
    from .utils import slugify
`,
			want: []string{"os", "app.core.config", "json", "app.models", ".views", ".forms", "..shared", "..", ".utils"},
		},
		{
			name: "javascript",
			path: "src/index.js",
			lang: "javascript",
			src: `import React from "react";
import './styles.css';
export { a } from "./a";
export * from './b';
const fs = require('fs');
const lazy = () => import("./lazy");
`,
			want: []string{"react", "./styles.css", "./a", "./b", "fs", "./lazy"},
		},
		{
			name: "typescript",
			path: "src/app.ts",
			lang: "typescript",
			src: `import { Button } from '@/components/Button';
import type { Config } from "../config";
import legacy = require("./legacy");
export default function app() {}
`,
			want: []string{"@/components/Button", "../config", "./legacy"},
		},
		{
			name: "tsx",
			path: "src/App.tsx",
			lang: "typescript",
			src: `import { Header } from "./Header";
export const App = () => <Header title="x" />;
`,
			want: []string{"./Header"},
		},
		{
			name: "go",
			path: "cmd/main.go",
			lang: "go",
			src: `package main

import "fmt"

import (
	"os"
	cfg "github.com/acme/app/internal/config"
	_ "embed"
)

func main() { fmt.Println(os.Args, cfg.X) }
`,
			want: []string{"fmt", "os", "github.com/acme/app/internal/config", "embed"},
		},
		{
			name: "rust",
			path: "src/lib.rs",
			lang: "rust",
			src: `mod parser;
mod inline { pub fn f() {} }
use std::collections::HashMap;
use crate::model::{user, order::Order, self};
use super::util as u;
use self::parser::*;
`,
			want: []string{"self::parser", "std::collections::HashMap", "crate::model::user", "crate::model::order::Order", "crate::model", "super::util"},
		},
		{
			name: "java fallback",
			path: "src/App.java",
			lang: "java",
			src: `package com.acme;
import com.acme.model.User;
import static com.acme.util.Strings.join;
import java.util.*;
`,
			want: []string{"com.acme.model.User", "com.acme.util.Strings.join", "java.util"},
		},
		{
			name: "ruby fallback",
			path: "lib/app.rb",
			lang: "ruby",
			src: `require 'json'
require_relative 'helpers/format'
require_relative '../config'
`,
			want: []string{"json", "./helpers/format", "../config"},
		},
		{
			name: "php fallback",
			path: "src/index.php",
			lang: "php",
			src: `<?php
use App\Models\User;
require_once 'vendor/autoload.php';
`,
			want: []string{`App\Models\User`, "vendor/autoload.php"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Imports(context.Background(), tt.path, tt.lang, []byte(tt.src))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestImportsBrokenSourceDoesNotFail(t *testing.T) {
	got, err := Imports(context.Background(), "bad.py", "python", []byte("import (\nfrom import\n"))
	require.NoError(t, err)
	assert.NotContains(t, got, "")
}

func TestExtractAll(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"a.py":    "import b\nfrom . import c\n",
		"b.py":    "",
		"web.ts":  "import x from './x';\n",
		"main.go": "package main\nimport \"fmt\"\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0644))
	}

	sources := []Source{
		{Path: "a.py", FullPath: filepath.Join(root, "a.py"), Language: "python"},
		{Path: "b.py", FullPath: filepath.Join(root, "b.py"), Language: "python"},
		{Path: "missing.py", FullPath: filepath.Join(root, "missing.py"), Language: "python"},
		{Path: "web.ts", FullPath: filepath.Join(root, "web.ts"), Language: "typescript"},
		{Path: "main.go", FullPath: filepath.Join(root, "main.go"), Language: "go"},
	}

	out, err := New(Options{Workers: 2}).ExtractAll(context.Background(), sources)
	require.NoError(t, err)
	require.Len(t, out, len(sources))

	assert.Equal(t, "a.py", out[0].Path)
	assert.Equal(t, []string{"b", ".c"}, out[0].Imports)
	assert.Empty(t, out[1].Imports)
	assert.Equal(t, "missing.py", out[2].Path)
	assert.Empty(t, out[2].Imports)
	assert.Equal(t, []string{"./x"}, out[3].Imports)
	assert.Equal(t, []string{"fmt"}, out[4].Imports)
}

func TestExtractAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Options{}).ExtractAll(ctx, []Source{{Path: "a.py", FullPath: "a.py", Language: "python"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLanguagesHaveExtractors(t *testing.T) {
	for _, lang := range Languages() {
		if grammarFor("x", lang) == "" {
			_, ok := linePatterns[lang]
			assert.True(t, ok, "no extractor for %s", lang)
		}
	}
}
