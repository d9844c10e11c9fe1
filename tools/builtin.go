package tools

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/jkhoffman/cogni/llm"
)

func objectSchema(required []string, properties map[string]any) llm.ToolSchema {
	return llm.ToolSchema{Type: "object", Properties: properties, Required: required}
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func numberProp(description string) map[string]any {
	return map[string]any{"type": "number", "description": description}
}

func boolProp(description string) map[string]any {
	return map[string]any{"type": "boolean", "description": description}
}

// validateWorkspacePath ensures targetPath resolves to somewhere inside
// workspacePath, rejecting absolute escapes and ../ traversal.
func validateWorkspacePath(workspacePath, targetPath string) (string, error) {
	workspacePath = filepath.Clean(workspacePath)
	absWorkspace, err := filepath.Abs(workspacePath)
	if err != nil {
		return "", fmt.Errorf("invalid workspace path: %w", err)
	}

	var absTarget string
	if filepath.IsAbs(targetPath) {
		absTarget = filepath.Clean(targetPath)
	} else {
		absTarget, err = filepath.Abs(filepath.Join(absWorkspace, targetPath))
		if err != nil {
			return "", fmt.Errorf("invalid path: %w", err)
		}
	}

	if !strings.HasPrefix(absTarget+string(filepath.Separator), absWorkspace+string(filepath.Separator)) {
		return "", fmt.Errorf("path outside workspace: %s", targetPath)
	}
	return absTarget, nil
}

// RegisterFilesystemTools registers read/write/list/search tools scoped to
// workspacePath. Every path argument is resolved and validated against it
// before touching the filesystem.
func RegisterFilesystemTools(r *Registry, workspacePath string) error {
	if err := r.Register(llm.ToolSpec{
		Name:        "read_file",
		Description: "Read the contents of a file. Returns the file content, size, and path.",
		Schema: objectSchema([]string{"path"}, map[string]any{
			"path":      stringProp("Path to the file to read (relative to workspace)"),
			"max_bytes": numberProp("Maximum number of bytes to read (0 = read entire file)"),
		}),
	}, readFileHandler(workspacePath)); err != nil {
		return err
	}

	if err := r.Register(llm.ToolSpec{
		Name:        "write_file",
		Description: "Write content to a file. Creates the file if it doesn't exist, overwrites if it does.",
		Schema: objectSchema([]string{"path", "content"}, map[string]any{
			"path":        stringProp("Path to the file to write (relative to workspace)"),
			"content":     stringProp("Content to write to the file"),
			"create_dirs": boolProp("Create parent directories if they don't exist"),
		}),
	}, writeFileHandler(workspacePath)); err != nil {
		return err
	}

	if err := r.Register(llm.ToolSpec{
		Name:        "list_directory",
		Description: "List files and directories in a path, optionally recursive.",
		Schema: objectSchema(nil, map[string]any{
			"path":           stringProp("Path to the directory to list (relative to workspace, default '.')"),
			"recursive":      boolProp("Whether to list recursively"),
			"include_hidden": boolProp("Whether to include hidden files (starting with '.')"),
		}),
	}, listDirectoryHandler(workspacePath)); err != nil {
		return err
	}

	if err := r.Register(llm.ToolSpec{
		Name:        "file_info",
		Description: "Get metadata about a file or directory (size, mode, modification time).",
		Schema:      objectSchema([]string{"path"}, map[string]any{"path": stringProp("Path to the file or directory (relative to workspace)")}),
	}, fileInfoHandler(workspacePath)); err != nil {
		return err
	}

	if err := r.Register(llm.ToolSpec{
		Name:        "grep_search",
		Description: "Search file contents using a regex pattern. Returns matching lines with line numbers.",
		Schema: objectSchema([]string{"pattern", "path"}, map[string]any{
			"pattern":        stringProp("Regex pattern to search for"),
			"path":           stringProp("Path to file or directory to search in (relative to workspace)"),
			"case_sensitive": boolProp("Whether the search should be case-sensitive (default false)"),
		}),
	}, grepSearchHandler(workspacePath)); err != nil {
		return err
	}

	return nil
}

func readFileHandler(workspacePath string) Handler {
	return func(ctx context.Context, args map[string]any) (any, error) {
		path, _ := args["path"].(string)
		maxBytes, _ := args["max_bytes"].(float64)

		validPath, err := validateWorkspacePath(workspacePath, path)
		if err != nil {
			return nil, err
		}

		info, err := os.Stat(validPath)
		if err != nil {
			return nil, fmt.Errorf("failed to stat file: %w", err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("path is a directory, not a file: %s", path)
		}

		file, err := os.Open(validPath) //#nosec G304 -- path validated against workspace above
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		defer file.Close() //nolint:errcheck

		var content []byte
		if maxBytes > 0 {
			content = make([]byte, int64(maxBytes))
			n, err := file.Read(content)
			if err != nil && err != io.EOF {
				return nil, fmt.Errorf("failed to read file: %w", err)
			}
			content = content[:n]
		} else {
			content, err = io.ReadAll(file)
			if err != nil {
				return nil, fmt.Errorf("failed to read file: %w", err)
			}
		}

		return map[string]any{"content": string(content), "size": len(content), "path": path}, nil
	}
}

func writeFileHandler(workspacePath string) Handler {
	return func(ctx context.Context, args map[string]any) (any, error) {
		path, _ := args["path"].(string)
		content, _ := args["content"].(string)
		createDirs, _ := args["create_dirs"].(bool)

		validPath, err := validateWorkspacePath(workspacePath, path)
		if err != nil {
			return nil, err
		}

		if createDirs {
			if err := os.MkdirAll(filepath.Dir(validPath), 0o750); err != nil {
				return nil, fmt.Errorf("failed to create parent directories: %w", err)
			}
		}
		if err := os.WriteFile(validPath, []byte(content), 0o600); err != nil {
			return nil, fmt.Errorf("failed to write file: %w", err)
		}
		info, err := os.Stat(validPath)
		if err != nil {
			return nil, fmt.Errorf("failed to stat written file: %w", err)
		}
		return map[string]any{"path": path, "size": info.Size(), "written": true}, nil
	}
}

func listDirectoryHandler(workspacePath string) Handler {
	return func(ctx context.Context, args map[string]any) (any, error) {
		path, _ := args["path"].(string)
		if path == "" {
			path = "."
		}
		recursive, _ := args["recursive"].(bool)
		includeHidden, _ := args["include_hidden"].(bool)

		validPath, err := validateWorkspacePath(workspacePath, path)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(validPath)
		if err != nil {
			return nil, fmt.Errorf("failed to stat path: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("path is not a directory: %s", path)
		}

		var entries []map[string]any
		walk := func(walkPath string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			name := info.Name()
			if !includeHidden && strings.HasPrefix(name, ".") {
				if info.IsDir() && walkPath != validPath {
					return filepath.SkipDir
				}
				return nil
			}
			if walkPath == validPath {
				return nil
			}
			relPath, err := filepath.Rel(workspacePath, walkPath)
			if err != nil {
				return err
			}
			entries = append(entries, map[string]any{
				"path": relPath, "name": name, "is_dir": info.IsDir(),
				"size": info.Size(), "mod_time": info.ModTime().Unix(),
			})
			if !recursive && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err := filepath.Walk(validPath, walk); err != nil {
			return nil, fmt.Errorf("failed to walk directory: %w", err)
		}

		return map[string]any{"path": path, "entries": entries, "count": len(entries)}, nil
	}
}

func fileInfoHandler(workspacePath string) Handler {
	return func(ctx context.Context, args map[string]any) (any, error) {
		path, _ := args["path"].(string)
		validPath, err := validateWorkspacePath(workspacePath, path)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(validPath)
		if err != nil {
			return nil, fmt.Errorf("failed to stat file: %w", err)
		}
		return map[string]any{
			"path": path, "is_dir": info.IsDir(), "size": info.Size(),
			"mod_time": info.ModTime().Unix(), "perm": info.Mode().Perm().String(),
		}, nil
	}
}

func grepSearchHandler(workspacePath string) Handler {
	return func(ctx context.Context, args map[string]any) (any, error) {
		pattern, _ := args["pattern"].(string)
		path, _ := args["path"].(string)
		caseSensitive, _ := args["case_sensitive"].(bool)

		validPath, err := validateWorkspacePath(workspacePath, path)
		if err != nil {
			return nil, err
		}
		flags := "(?i)"
		if caseSensitive {
			flags = ""
		}
		re, err := regexp.Compile(flags + pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern: %w", err)
		}

		var matches []map[string]any
		searchFile := func(filePath, relPath string) error {
			content, err := os.ReadFile(filePath) //#nosec G304 -- path validated against workspace above
			if err != nil {
				return err
			}
			for lineNum, line := range strings.Split(string(content), "\n") {
				if re.MatchString(line) {
					matches = append(matches, map[string]any{"line_number": lineNum + 1, "line": line, "file": relPath})
				}
			}
			return nil
		}

		info, err := os.Stat(validPath)
		if err != nil {
			return nil, fmt.Errorf("failed to stat path: %w", err)
		}
		if info.IsDir() {
			_ = filepath.Walk(validPath, func(p string, fi os.FileInfo, err error) error {
				if err != nil || fi.IsDir() {
					return nil
				}
				relPath, err := filepath.Rel(workspacePath, p)
				if err != nil {
					return nil
				}
				return searchFile(p, relPath)
			})
		} else {
			relPath, _ := filepath.Rel(workspacePath, validPath)
			if err := searchFile(validPath, relPath); err != nil {
				return nil, fmt.Errorf("failed to search: %w", err)
			}
		}

		return map[string]any{"pattern": pattern, "path": path, "matches": matches, "count": len(matches)}, nil
	}
}

var dangerousCommandPatterns = []string{
	"rm -rf /", "rm -rf ~", "rm -rf *", "rm -", "rmdir", "mkfs", "format ", "fdisk ",
	"dd if=", "dd of=", "> /dev/sd", "of=/dev/sd", "of=/dev/hd",
	"sudo rm", "sudo format", "sudo mkfs", "chmod 777", "chmod 000",
}

func isDangerousCommand(command string) bool {
	lower := strings.ToLower(command)
	for _, pattern := range dangerousCommandPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	if (strings.Contains(lower, "curl") || strings.Contains(lower, "wget")) &&
		strings.Contains(lower, "|") &&
		(strings.Contains(lower, "| sh") || strings.Contains(lower, "| bash")) {
		return true
	}
	return false
}

// RegisterSystemTools registers a single execute_command tool, sandboxed
// to workspacePath and a conservative command blocklist. Disabled by omission:
// callers that don't want shell access simply don't register it.
func RegisterSystemTools(r *Registry, workspacePath string) error {
	return r.Register(llm.ToolSpec{
		Name:        "execute_command",
		Description: "Run a shell command inside the workspace and capture its output.",
		Schema: objectSchema([]string{"command"}, map[string]any{
			"command": stringProp("Command to run"),
			"args":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Command arguments"},
			"timeout": numberProp("Timeout in seconds (default 30, max 300)"),
		}),
	}, executeCommandHandler(workspacePath))
}

func executeCommandHandler(workspacePath string) Handler {
	return func(ctx context.Context, args map[string]any) (any, error) {
		command, _ := args["command"].(string)
		timeoutSeconds := 30
		if t, ok := args["timeout"].(float64); ok && t > 0 {
			timeoutSeconds = int(t)
		}
		if timeoutSeconds > 300 {
			timeoutSeconds = 300
		}

		var cmdArgs []string
		if raw, ok := args["args"].([]any); ok {
			for _, a := range raw {
				if s, ok := a.(string); ok {
					cmdArgs = append(cmdArgs, s)
				}
			}
		}

		full := command
		if len(cmdArgs) > 0 {
			full += " " + strings.Join(cmdArgs, " ")
		}
		if isDangerousCommand(full) {
			return nil, fmt.Errorf("command blocked: matches a disallowed pattern")
		}

		cmdCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSeconds)*time.Second)
		defer cancel()

		var cmd *exec.Cmd
		if len(cmdArgs) > 0 {
			cmd = exec.CommandContext(cmdCtx, command, cmdArgs...) //#nosec G204 -- intentional command execution tool
		} else {
			cmd = exec.CommandContext(cmdCtx, command) //#nosec G204 -- intentional command execution tool
		}
		cmd.Dir = workspacePath

		output, runErr := cmd.CombinedOutput()
		exitCode := 0
		if runErr != nil {
			if exitErr, ok := runErr.(*exec.ExitError); ok {
				exitCode = exitErr.ExitCode()
			} else if cmdCtx.Err() != nil {
				return nil, fmt.Errorf("command timed out after %d seconds", timeoutSeconds)
			} else {
				return nil, fmt.Errorf("command failed: %w", runErr)
			}
		}

		return map[string]any{"command": full, "exit_code": exitCode, "output": string(output), "success": exitCode == 0}, nil
	}
}
