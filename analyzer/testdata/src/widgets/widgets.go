package widgets

// Names lists the widgets shipped with the UI.
var Names = []string{"card", "list"}
