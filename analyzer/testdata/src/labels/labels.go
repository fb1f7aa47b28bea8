package labels

// Prefix is prepended to every widget label.
const Prefix = "widget: "
