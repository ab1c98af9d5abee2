package svc

import (
	"context"
	"errors"

	"github.com/dekarrin/koto"
	internalkoto "github.com/dekarrin/koto/internal/koto"
	"github.com/dekarrin/koto/internal/koto/cache"
	"github.com/dekarrin/koto/server/dao"
	"github.com/dekarrin/koto/server/serr"
	"github.com/dekarrin/rezi"
	"github.com/google/uuid"
)

// CreateScript stores a new named script owned by who. The AST cache is
// left empty; it is populated lazily the first time the script runs.
//
// The returned error, if non-nil, will match serr.ErrBadArgument if name or
// source is blank, or serr.ErrDB if persistence failed unexpectedly.
func (svc Service) CreateScript(ctx context.Context, who uuid.UUID, name, source string) (dao.Script, error) {
	if name == "" {
		return dao.Script{}, serr.New("name cannot be blank", serr.ErrBadArgument)
	}
	if source == "" {
		return dao.Script{}, serr.New("source cannot be blank", serr.ErrBadArgument)
	}

	script, err := svc.DB.Scripts().Create(ctx, dao.Script{
		UserID: who,
		Name:   name,
		Source: source,
	})
	if err != nil {
		return dao.Script{}, serr.WrapDB("could not create script", err)
	}

	return script, nil
}

// GetScript returns the script with the given ID.
func (svc Service) GetScript(ctx context.Context, id uuid.UUID) (dao.Script, error) {
	script, err := svc.DB.Scripts().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Script{}, serr.ErrNotFound
		}
		return dao.Script{}, serr.WrapDB("could not get script", err)
	}
	return script, nil
}

// ListScripts returns every script owned by who.
func (svc Service) ListScripts(ctx context.Context, who uuid.UUID) ([]dao.Script, error) {
	scripts, err := svc.DB.Scripts().GetAllByUser(ctx, who)
	if err != nil {
		return nil, serr.WrapDB("could not list scripts", err)
	}
	return scripts, nil
}

// UpdateScript replaces the name and/or source of the script with the given
// ID. Changing the source invalidates the cached AST by clearing it; it is
// recompiled and re-cached the next time the script runs.
func (svc Service) UpdateScript(ctx context.Context, id uuid.UUID, name, source string) (dao.Script, error) {
	existing, err := svc.DB.Scripts().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Script{}, serr.ErrNotFound
		}
		return dao.Script{}, serr.WrapDB("", err)
	}

	if name != "" {
		existing.Name = name
	}
	if source != "" && source != existing.Source {
		existing.Source = source
		existing.ASTCache = nil
	}

	updated, err := svc.DB.Scripts().Update(ctx, id, existing)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Script{}, serr.ErrNotFound
		}
		return dao.Script{}, serr.WrapDB("could not update script", err)
	}

	return updated, nil
}

// DeleteScript removes the script with the given ID. It returns the deleted
// script just after it was deleted.
func (svc Service) DeleteScript(ctx context.Context, id uuid.UUID) (dao.Script, error) {
	script, err := svc.DB.Scripts().Delete(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Script{}, serr.ErrNotFound
		}
		return dao.Script{}, serr.WrapDB("could not delete script", err)
	}
	return script, nil
}

// RunResult is the outcome of running a script: either a rendered final
// value, or a rendered error, never both.
type RunResult struct {
	Value string
	Error string
}

// RunScript evaluates the stored script with the given ID. It prefers the
// script's own row-resident ASTCache blob over the content-addressed
// on-disk cache.Store, since the row survives even if the disk cache
// directory is cleared; a parse on either miss is persisted back to both.
//
// A script failing to parse or evaluate is reported via RunResult.Error, not
// via the returned error; the returned error is reserved for problems
// looking up or persisting the script itself.
func (svc Service) RunScript(ctx context.Context, id uuid.UUID, args []string) (RunResult, error) {
	script, err := svc.DB.Scripts().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return RunResult{}, serr.ErrNotFound
		}
		return RunResult{}, serr.WrapDB("could not get script", err)
	}

	ast, fromRowCache := decodeASTCache(script.ASTCache)
	if !fromRowCache {
		var err error
		ast, err = cache.ParseCached(svc.ASTCache, script.Source)
		if err != nil {
			return RunResult{Error: koto.RenderError(err)}, nil
		}

		if encoded := rezi.EncBinary(ast); encoded != nil {
			script.ASTCache = encoded
			if _, err := svc.DB.Scripts().Update(ctx, id, script); err != nil {
				return RunResult{}, serr.WrapDB("could not persist parsed AST", err)
			}
		}
	}

	return svc.runAST(ast, args), nil
}

// RunAdHoc evaluates source directly without persisting it, for one-off
// script execution against the server's builtin modules. Ad hoc source
// still goes through ASTCache, keyed on its content hash, so repeatedly
// running the same snippet (e.g. a client polling a health-check script)
// skips re-parsing.
func (svc Service) RunAdHoc(ctx context.Context, source string, args []string) RunResult {
	return svc.runSource(ctx, source, args)
}

func (svc Service) runSource(ctx context.Context, source string, args []string) RunResult {
	ast, err := cache.ParseCached(svc.ASTCache, source)
	if err != nil {
		return RunResult{Error: koto.RenderError(err)}
	}
	return svc.runAST(ast, args)
}

func (svc Service) runAST(ast *internalkoto.Node, args []string) RunResult {
	interp := koto.New()
	interp.SetArgs(args)

	v, err := interp.RunProgram(koto.ProgramFromAST(ast))
	if err != nil {
		return RunResult{Error: koto.RenderError(err)}
	}

	return RunResult{Value: v.String()}
}

// decodeASTCache attempts to decode a script's row-resident ASTCache blob.
// Any decode failure (including an empty blob) is treated as a cache miss,
// never an error: the caller always falls back to parsing.
func decodeASTCache(blob []byte) (*internalkoto.Node, bool) {
	if len(blob) == 0 {
		return nil, false
	}
	n := &internalkoto.Node{}
	if _, err := rezi.DecBinary(blob, n); err != nil {
		return nil, false
	}
	return n, true
}
