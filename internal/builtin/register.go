package builtin

// RegisterAll adds the shell's builtins to r.
func RegisterAll(r *Registry, env *Env) {
	r.Register(&Cd{env: env})
	r.Register(&Exit{env: env})
	r.Register(&Fg{env: env})
	r.Register(&Help{env: env, reg: r})
}
