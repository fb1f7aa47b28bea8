package webui

// Root is where the UI sources are served from.
const Root = "/ui"
